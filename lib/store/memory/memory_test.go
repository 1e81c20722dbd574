package memory

import (
	"encoding/json"
	"testing"

	"github.com/uvensys/pchan/lib/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Common(t, factory{}, json.RawMessage(`{}`), nil)
}
