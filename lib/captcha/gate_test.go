package captcha

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uvensys/pchan/lib/store/memory"
)

func testGate(t *testing.T, ttl time.Duration) *Gate {
	t.Helper()
	return NewGate(memory.New(t.Context()), ttl)
}

func TestGateOneTimeUse(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Validate(t.Context(), chall.ID, chall.Answer); err != nil {
		t.Fatalf("first validation should pass: %v", err)
	}

	err = g.Validate(t.Context(), chall.ID, chall.Answer)
	if !errors.Is(err, ErrExpiredOrUnknown) {
		t.Errorf("wanted ErrExpiredOrUnknown on replay, got: %v", err)
	}
}

func TestGateCaseFolding(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Validate(t.Context(), chall.ID, strings.ToUpper(chall.Answer)); err != nil {
		t.Errorf("upper-cased answer should pass: %v", err)
	}
}

func TestGateConsumesOnMismatch(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	err = g.Validate(t.Context(), chall.ID, "definitely wrong")
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("wanted ErrMismatch, got: %v", err)
	}

	// The failed attempt already consumed the challenge, so even the right
	// answer must be refused now.
	err = g.Validate(t.Context(), chall.ID, chall.Answer)
	if !errors.Is(err, ErrExpiredOrUnknown) {
		t.Errorf("wanted ErrExpiredOrUnknown after failed attempt, got: %v", err)
	}
}

func TestGateExpiry(t *testing.T) {
	g := testGate(t, 10*time.Millisecond)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	err = g.Validate(t.Context(), chall.ID, chall.Answer)
	if !errors.Is(err, ErrExpiredOrUnknown) {
		t.Errorf("wanted ErrExpiredOrUnknown after TTL, got: %v", err)
	}
}

func TestGateMissingFieldsDoNotConsume(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name       string
		id, answer string
	}{
		{name: "no answer", id: chall.ID, answer: ""},
		{name: "no id", id: "", answer: chall.Answer},
		{name: "neither", id: "", answer: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(t.Context(), tt.id, tt.answer)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("wanted ErrMissingField, got: %v", err)
			}
		})
	}

	// None of the malformed attempts may have consumed the entry.
	if err := g.Validate(t.Context(), chall.ID, chall.Answer); err != nil {
		t.Errorf("challenge should still be consumable: %v", err)
	}
}

func TestGateConcurrentValidate(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	const workers = 2
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.Validate(t.Context(), chall.ID, chall.Answer)
		}()
	}

	wg.Wait()
	close(results)

	var allows, denies int
	for err := range results {
		switch {
		case err == nil:
			allows++
		case errors.Is(err, ErrExpiredOrUnknown):
			denies++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if allows != 1 || denies != workers-1 {
		t.Errorf("wanted exactly one allow, got %d allows and %d denies", allows, denies)
	}
}

func TestGatePublicReasons(t *testing.T) {
	g := testGate(t, 0)

	chall, err := g.Issue(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name       string
		id, answer string
		public     string
	}{
		{name: "missing fields", id: "", answer: "", public: "Captcha required"},
		{name: "unknown id", id: "0000", answer: "aaaaa", public: "Captcha incorrect"},
		{name: "wrong answer", id: chall.ID, answer: "zzzzz9", public: "Captcha incorrect"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(t.Context(), tt.id, tt.answer)

			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("wanted *captcha.Error, got: %v", err)
			}

			if cerr.PublicReason != tt.public {
				t.Errorf("wanted public reason %q, got: %q", tt.public, cerr.PublicReason)
			}
		})
	}
}
