// Package all imports every store backend for their side effects.
package all

import (
	_ "github.com/uvensys/pchan/lib/store/memory"
	_ "github.com/uvensys/pchan/lib/store/valkey"
)
