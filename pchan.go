// Package pchan contains the shared constants for the pchan image board.
package pchan

import "time"

// Version is the version of pchan, set at build time.
var Version = "devel"

// DefaultBoard is the board that write routes are registered for when no
// board list is configured.
const DefaultBoard = "b"

const (
	// CaptchaWidth and CaptchaHeight are the dimensions of the captcha
	// raster in pixels.
	CaptchaWidth  = 150
	CaptchaHeight = 50

	// CaptchaAnswerLength is the number of characters in a captcha answer.
	CaptchaAnswerLength = 5

	// CaptchaIDBytes is the amount of entropy behind a challenge ID. The
	// ID is the hex encoding of this many bytes from crypto/rand.
	CaptchaIDBytes = 16

	// CaptchaQuestion is the prompt shown next to the captcha image.
	CaptchaQuestion = "Enter the text shown in the image"

	// DefaultCaptchaTTL is how long an unconsumed challenge stays valid.
	DefaultCaptchaTTL = 5 * time.Minute

	// DefaultMaxUploadBytes is the upload size cap for post images.
	DefaultMaxUploadBytes = 5 * 1024 * 1024
)
