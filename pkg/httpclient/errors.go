package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 64 << 10

// upstreamError covers the error body shapes returned by the collaborators
// we call: {"error":{"message":...}}, {"error":"..."} and {"message":"..."}.
type upstreamError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (u upstreamError) text() string {
	if len(u.Error) > 0 {
		var s string
		if json.Unmarshal(u.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(u.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return u.Message
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns a CollaboratorFailure naming collaborator, carrying the status and
// the upstream message when one can be extracted.
func ParseResponseError(resp *http.Response, collaborator string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.CollaboratorFailure(collaborator,
			fmt.Errorf("status %d (read body: %w)", resp.StatusCode, err))
	}

	msg := strings.TrimSpace(string(body))
	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil {
		if t := parsed.text(); t != "" {
			msg = t
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperrors.CollaboratorFailure(collaborator, &StatusError{Status: resp.StatusCode, Message: msg})
}

// StatusError is a non-2xx response from a collaborator.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}
