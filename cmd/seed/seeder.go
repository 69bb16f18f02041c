package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/pkg/httpclient"
)

const collaborator = "reputation-api"

var businesses = []string{
	"Blue Door Diner",
	"Harbor Street Pizza",
	"The Copper Kettle",
	"Night Owl Tacos",
	"Maple & Rye",
}

var comments = map[bool][]string{
	true: {
		"Friendly, patient and tipped well.",
		"Polite the whole visit and easy to serve.",
		"Great regular, always thanks the staff.",
		"Quick to order and paid without any fuss.",
	},
	false: {
		"Rude to the staff and left a huge mess.",
		"Argued about the bill and left without tipping.",
		"Disrespectful all night, would not serve again.",
		"Complained the whole time and was really demanding.",
	},
}

type reviewRequest struct {
	Phone        string  `json:"phone"`
	Overall      float64 `json:"overall"`
	Behavior     float64 `json:"behavior"`
	Payment      float64 `json:"payment"`
	Maintenance  float64 `json:"maintenance"`
	Comment      string  `json:"comment"`
	Role         string  `json:"role"`
	BusinessName string  `json:"business_name"`
}

type profileResponse struct {
	Data struct {
		Flagged bool `json:"flagged"`
	} `json:"data"`
}

type summary struct {
	Customers int
	Reviews   int
	Failed    int
	Flagged   int
}

type seeder struct {
	http   httpclient.Doer
	base   string
	rng    *rand.Rand
	logger *slog.Logger
}

func newSeeder(doer httpclient.Doer, baseURL string, rng *rand.Rand, logger *slog.Logger) *seeder {
	return &seeder{http: doer, base: strings.TrimRight(baseURL, "/"), rng: rng, logger: logger}
}

// run submits perCustomer reviews for each of customers generated phones,
// then looks every customer up once. A failed review is logged and counted;
// only a cancelled context stops the run.
func (s *seeder) run(ctx context.Context, customers, perCustomer int) (summary, error) {
	var sum summary
	for i := 0; i < customers; i++ {
		phone := s.phone(i)
		// About a third of the customers lean negative.
		bad := s.rng.IntN(3) == 0

		for j := 0; j < perCustomer; j++ {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if err := s.post(ctx, s.review(phone, bad)); err != nil {
				sum.Failed++
				s.logger.WarnContext(ctx, "submit review failed", slog.String("error", err.Error()))
				continue
			}
			sum.Reviews++
		}
		sum.Customers++

		flagged, err := s.flagged(ctx, phone)
		if err != nil {
			s.logger.WarnContext(ctx, "lookup failed", slog.String("error", err.Error()))
			continue
		}
		if flagged {
			sum.Flagged++
		}
	}
	return sum, nil
}

// phone returns the i-th seed number in the 555-01xx fictional range.
func (s *seeder) phone(i int) string {
	return fmt.Sprintf("(555) 01%d-%04d", i/10000%10, i%10000)
}

func (s *seeder) review(phone string, bad bool) reviewRequest {
	pick := func(list []string) string { return list[s.rng.IntN(len(list))] }
	return reviewRequest{
		Phone:        phone,
		Overall:      s.rating(bad),
		Behavior:     s.rating(bad),
		Payment:      s.rating(bad),
		Maintenance:  s.rating(bad),
		Comment:      pick(comments[!bad]),
		Role:         pick(domain.ValidRoles()),
		BusinessName: pick(businesses),
	}
}

// rating draws a half-star rating from [1, 2.5] for bad customers and
// [3, 5] otherwise.
func (s *seeder) rating(bad bool) float64 {
	if bad {
		return domain.MinRating + float64(s.rng.IntN(4))*0.5
	}
	return 3 + float64(s.rng.IntN(5))*0.5
}

func (s *seeder) post(ctx context.Context, body reviewRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/api/v1/reviews", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, collaborator)
	}
	return resp.Body.Close()
}

func (s *seeder) flagged(ctx context.Context, phone string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.base+"/api/v1/customers/lookup?phone="+url.QueryEscape(phone), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, httpclient.ParseResponseError(resp, collaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var out profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode profile: %w", err)
	}
	return out.Data.Flagged, nil
}
