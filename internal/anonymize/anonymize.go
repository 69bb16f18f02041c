// Package anonymize derives the identifiers a customer is known by from a raw
// phone number: an irreversible lookup key and a memorable display identity.
package anonymize

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

// PhoneDigits is the number of digits a normalized phone number must have.
const PhoneDigits = 10

// ErrInvalidPhone is wrapped by every phone normalization failure.
var ErrInvalidPhone = errors.New("phone number must contain exactly 10 digits")

// The pools are deliberately small. Display identities collide across
// customers and are never used as identifiers.
var (
	firstNames = []string{
		"Alex", "Blake", "Casey", "Dana", "Eden", "Frankie", "Gray", "Harper",
		"Indy", "Jordan", "Kai", "Logan", "Morgan", "Noel", "Parker", "Quinn",
		"Riley", "Sage", "Taylor", "Val",
	}
	initials = []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "J", "K", "L", "M", "N",
		"P", "R", "S", "T", "W",
	}
)

func invalidPhone() error {
	return &apperrors.AppError{
		Code:    "INVALID_PHONE",
		Message: ErrInvalidPhone.Error(),
		Field:   "phone",
		Status:  http.StatusBadRequest,
		Err:     errors.Join(apperrors.ErrInvalidInput, ErrInvalidPhone),
	}
}

// Normalize strips every non-digit character from phone and requires exactly
// PhoneDigits digits to remain.
func Normalize(phone string) (string, error) {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) != PhoneDigits {
		return "", invalidPhone()
	}
	return string(digits), nil
}

// Hash returns the unkeyed lookup key for phone: the lower-case hex SHA-256
// of its normalized digits.
func Hash(phone string) (string, error) {
	return Hasher{}.Key(phone)
}

// Hasher derives lookup keys. With a pepper the key is HMAC-SHA-256 under
// that pepper, so the table of all 10^10 numbers cannot be rebuilt without
// it. The zero value hashes without a key.
type Hasher struct {
	pepper []byte
}

// NewHasher returns a Hasher keyed with pepper. An empty pepper gives the
// unkeyed Hasher.
func NewHasher(pepper string) Hasher {
	if pepper == "" {
		return Hasher{}
	}
	return Hasher{pepper: []byte(pepper)}
}

// Keyed reports whether h hashes under a pepper.
func (h Hasher) Keyed() bool {
	return len(h.pepper) > 0
}

// Key returns the lookup key for phone.
func (h Hasher) Key(phone string) (string, error) {
	digits, err := Normalize(phone)
	if err != nil {
		return "", err
	}
	if !h.Keyed() {
		sum := sha256.Sum256([]byte(digits))
		return hex.EncodeToString(sum[:]), nil
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(digits))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// DisplayIdentity maps the digit sum of phone onto a "First I." label.
func DisplayIdentity(phone string) (string, error) {
	digits, err := Normalize(phone)
	if err != nil {
		return "", err
	}
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i] - '0')
	}
	return firstNames[sum%len(firstNames)] + " " + initials[sum%len(initials)] + ".", nil
}
