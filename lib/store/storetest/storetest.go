// Package storetest contains the conformance suite every store backend must
// pass.
package storetest

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/uvensys/pchan/lib/store"
)

// Common runs the shared behavior suite against a backend built from f.
// advance moves the backend's clock forward for the expiry test; pass nil
// for backends that track wall time.
func Common(t *testing.T, f store.Factory, config json.RawMessage, advance func(time.Duration)) {
	if err := f.Valid(config); err != nil {
		t.Fatal(err)
	}

	s, err := f.Build(t.Context(), config)
	if err != nil {
		t.Fatal(err)
	}

	if advance == nil {
		advance = func(d time.Duration) {
			//nosleep:bypass XXX: wall-clock backend, no fake clock to advance.
			time.Sleep(d)
		}
	}

	for _, tt := range []struct {
		name string
		doer func(t *testing.T, s store.Interface) error
		err  error
	}{
		{
			name: "take of unknown key",
			doer: func(t *testing.T, s store.Interface) error {
				if _, err := s.Take(t.Context(), t.Name()); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("wanted %s to not exist in store but it exists anyways", t.Name())
				}

				return nil
			},
		},
		{
			name: "set then take consumes",
			doer: func(t *testing.T, s store.Interface) error {
				if err := s.Set(t.Context(), t.Name(), []byte(t.Name()), 5*time.Minute); err != nil {
					return err
				}

				val, err := s.Take(t.Context(), t.Name())
				if errors.Is(err, store.ErrNotFound) {
					t.Errorf("wanted %s to exist in store but it does not: %v", t.Name(), err)
				} else if err != nil {
					t.Error(err)
				}

				if !bytes.Equal(val, []byte(t.Name())) {
					t.Logf("want: %q", t.Name())
					t.Logf("got:  %q", string(val))
					t.Error("wrong value returned")
				}

				if _, err := s.Take(t.Context(), t.Name()); !errors.Is(err, store.ErrNotFound) {
					t.Error("second take succeeded, entry was not consumed")
				}

				return nil
			},
		},
		{
			name: "expires",
			doer: func(t *testing.T, s store.Interface) error {
				if err := s.Set(t.Context(), t.Name(), []byte(t.Name()), 150*time.Millisecond); err != nil {
					return err
				}

				advance(200 * time.Millisecond)

				if _, err := s.Take(t.Context(), t.Name()); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("wanted %s to not exist in store but it exists anyways", t.Name())
				}

				return nil
			},
		},
		{
			name: "concurrent takers",
			doer: func(t *testing.T, s store.Interface) error {
				if err := s.Set(t.Context(), t.Name(), []byte(t.Name()), 5*time.Minute); err != nil {
					return err
				}

				const workers = 4
				var wg sync.WaitGroup
				wins := make(chan struct{}, workers)

				for range workers {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := s.Take(t.Context(), t.Name()); err == nil {
							wins <- struct{}{}
						}
					}()
				}

				wg.Wait()
				close(wins)

				var count int
				for range wins {
					count++
				}

				if count != 1 {
					t.Errorf("wanted exactly one take to win, got: %d", count)
				}

				return nil
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.doer(t, s); !errors.Is(err, tt.err) {
				t.Logf("want: %v", tt.err)
				t.Logf("got:  %v", err)
				t.Error("wrong error")
			}
		})
	}
}
