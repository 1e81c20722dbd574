package valkey

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/uvensys/pchan/lib/store/storetest"
)

func TestValkey(t *testing.T) {
	mr := miniredis.RunT(t)

	config := json.RawMessage(fmt.Sprintf(`{"url": "redis://%s"}`, mr.Addr()))

	storetest.Common(t, Factory{}, config, func(d time.Duration) {
		mr.FastForward(d)
	})
}

func TestFactoryValid(t *testing.T) {
	for _, tt := range []struct {
		name   string
		config string
		ok     bool
	}{
		{name: "valid", config: `{"url": "redis://localhost:6379"}`, ok: true},
		{name: "missing url", config: `{}`, ok: false},
		{name: "bad url", config: `{"url": "taco://nope"}`, ok: false},
		{name: "not json", config: `}{`, ok: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := Factory{}.Valid(json.RawMessage(tt.config))
			if tt.ok && err != nil {
				t.Errorf("wanted valid config, got: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("wanted config to be rejected")
			}
		})
	}
}
