// Package web holds the embedded static frontend.
package web

import "embed"

//go:embed static
var Static embed.FS
