// Package share turns a single review into anonymized content for posting to
// an external community.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/metrics"
	"github.com/utafrali/PatronScore/internal/tags"
)

// PositiveThreshold is the lowest overall rating routed to ChannelPositive.
const PositiveThreshold = 3.5

// DefaultTitleTimeout bounds a title generation call when none is configured.
const DefaultTitleTimeout = 5 * time.Second

// maxTitleLen matches the longest title the publishing network accepts.
const maxTitleLen = 300

// minRedactDigits is the shortest digit run treated as a phone number.
const minRedactDigits = 7

const redacted = "[redacted]"

// ErrNoCredential is returned by a TitleGenerator that has no API key.
var ErrNoCredential = errors.New("title generator credential not configured")

// TitleGenerator produces a short title from a prompt.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

var digitRun = regexp.MustCompile(`[+(]?\d[\d\s().-]*\d`)

// Channel routes a review by its overall rating.
func Channel(overall float64) string {
	if overall >= PositiveThreshold {
		return domain.ChannelPositive
	}
	return domain.ChannelNegative
}

// FallbackTitle is the deterministic title used whenever generation fails.
func FallbackTitle(rating float64) string {
	return formatRating(rating) + "/5 Customer Review"
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Scrub removes phone-number-like digit runs and every occurrence of the given
// names from text. Names match case-insensitively.
func Scrub(text string, names ...string) string {
	text = digitRun.ReplaceAllStringFunc(text, func(run string) string {
		n := 0
		for _, c := range run {
			if c >= '0' && c <= '9' {
				n++
			}
		}
		if n < minRedactDigits {
			return run
		}
		return redacted
	})
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
		text = re.ReplaceAllLiteralString(text, redacted)
	}
	return text
}

// NewActorLabel returns a fresh pseudonym for a shared post. It is unrelated
// to the customer's display identity.
func NewActorLabel() string {
	return "Patron #" + strings.ToUpper(uuid.NewString()[:4])
}

// Option configures a Generator.
type Option func(*Generator)

// WithMetrics records title fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithActorLabels overrides the actor label source.
func WithActorLabels(fn func() string) Option {
	return func(g *Generator) { g.newActor = fn }
}

// Generator builds ShareContent. A nil TitleGenerator always uses the
// fallback title.
type Generator struct {
	titles   TitleGenerator
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	newActor func() string
}

// NewGenerator creates a Generator. A non-positive timeout uses
// DefaultTitleTimeout.
func NewGenerator(titles TitleGenerator, timeout time.Duration, logger *slog.Logger, opts ...Option) *Generator {
	if timeout <= 0 {
		timeout = DefaultTitleTimeout
	}
	g := &Generator{
		titles:   titles,
		timeout:  timeout,
		logger:   logger,
		newActor: NewActorLabel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the share content for review. customer may be nil; when it
// carries a display name override that name is scrubbed from the output.
// Title generation failures never surface.
func (g *Generator) Generate(ctx context.Context, review *domain.Review, customer *domain.Customer) *domain.ShareContent {
	var names []string
	if customer.HasDisplayName() {
		names = append(names, *customer.DisplayName)
	}

	comment := strings.TrimSpace(Scrub(review.Comment, names...))
	labels := tags.Infer(review.Overall, review.Comment)
	channel := Channel(review.Overall)
	actor := g.newActor()

	return &domain.ShareContent{
		Title:      g.title(ctx, review.Overall, channel, comment, names),
		Body:       body(review, comment, labels, actor),
		Channel:    channel,
		ActorLabel: actor,
		Rating:     review.Overall,
		Tags:       labels,
	}
}

func (g *Generator) title(ctx context.Context, rating float64, channel, comment string, names []string) string {
	fallback := FallbackTitle(rating)
	if g.titles == nil {
		g.metrics.TitleFallback("unconfigured")
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		title string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		t, err := g.titles.GenerateTitle(ctx, prompt(rating, channel, comment))
		ch <- result{t, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		reason := "error"
		switch {
		case errors.Is(res.err, context.DeadlineExceeded):
			reason = "timeout"
		case errors.Is(res.err, ErrNoCredential):
			reason = "missing_credential"
		}
		g.metrics.TitleFallback(reason)
		g.logger.WarnContext(ctx, "title generation failed, using fallback",
			slog.String("reason", reason),
			slog.String("error", res.err.Error()),
		)
		return fallback
	}

	t := cleanTitle(Scrub(res.title, names...))
	if t == "" {
		g.metrics.TitleFallback("empty")
		return fallback
	}
	return t
}

func prompt(rating float64, channel, comment string) string {
	tone := "heartwarming"
	if channel == domain.ChannelNegative {
		tone = "frustrating"
	}
	p := fmt.Sprintf("Write a short, punchy title (under 12 words) for an anonymous, %s restaurant customer story rated %s/5. Do not include names or numbers.",
		tone, formatRating(rating))
	if comment != "" {
		p += " Story: " + comment
	}
	return p
}

// cleanTitle keeps the first line, strips wrapping quotes and bounds length.
func cleanTitle(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(strings.Trim(t, `"'`))
	if r := []rune(t); len(r) > maxTitleLen {
		t = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	return t
}

func roleLabel(role string) string {
	if role == "" || role == domain.RoleOther {
		return "service worker"
	}
	return strings.ReplaceAll(role, "_", " ")
}

func body(review *domain.Review, comment string, labels []string, actor string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A %s rated this customer %s/5.\n", roleLabel(review.Role), formatRating(review.Overall))
	if len(labels) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(labels, ", "))
	}
	if comment != "" {
		fmt.Fprintf(&b, "\n\"%s\"\n", comment)
	}
	fmt.Fprintf(&b, "\nPosted anonymously as %s", actor)
	return b.String()
}
