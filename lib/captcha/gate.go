package captcha

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/uvensys/pchan"
	"github.com/uvensys/pchan/lib/store"
)

// record is what gets stored per challenge. Answers are stored case-folded
// and never mutated.
type record struct {
	Answer   string    `json:"answer"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Gate issues challenges and validates exactly one attempt per challenge.
// Any attempt that reaches the backing store consumes the entry, pass or
// fail, so an ID can never be retried.
type Gate struct {
	store *store.JSON[record]
	ttl   time.Duration
}

func NewGate(backing store.Interface, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = pchan.DefaultCaptchaTTL
	}

	return &Gate{
		store: &store.JSON[record]{Underlying: backing, Prefix: "captcha:"},
		ttl:   ttl,
	}
}

// Issue generates a fresh challenge and arms its expiry in the store.
func (g *Gate) Issue(ctx context.Context) (*Challenge, error) {
	chall, err := Generate()
	if err != nil {
		return nil, err
	}

	rec := record{
		Answer:   chall.Answer,
		IssuedAt: chall.IssuedAt,
	}

	if err := g.store.Set(ctx, chall.ID, rec, g.ttl); err != nil {
		return nil, fmt.Errorf("captcha: can't store challenge: %w", err)
	}

	challengesIssued.Inc()

	return chall, nil
}

// Validate checks a claimed (id, answer) pair. Requests missing either
// field are rejected before the store is touched and do not consume
// anything. Every other attempt consumes the entry whether or not the
// answer matches.
func (g *Gate) Validate(ctx context.Context, id, answer string) error {
	if id == "" || answer == "" {
		validations.WithLabelValues("missing_field").Inc()
		return NewError("validate", "Captcha required", fmt.Errorf("%w: captchaId and captchaAnswer are required", ErrMissingField))
	}

	rec, err := g.store.Take(ctx, id)
	if err != nil {
		// A record that exists but cannot be decoded is treated the same as
		// one that never existed; it has been consumed either way.
		validations.WithLabelValues("expired_or_unknown").Inc()
		return NewError("validate", "Captcha incorrect", fmt.Errorf("%w: %w", ErrExpiredOrUnknown, err))
	}

	if subtle.ConstantTimeCompare([]byte(strings.ToLower(answer)), []byte(rec.Answer)) != 1 {
		validations.WithLabelValues("mismatch").Inc()
		return NewError("validate", "Captcha incorrect", fmt.Errorf("%w: challenge %s", ErrMismatch, id))
	}

	validations.WithLabelValues("ok").Inc()

	return nil
}

// TTL reports how long issued challenges stay valid.
func (g *Gate) TTL() time.Duration { return g.ttl }
