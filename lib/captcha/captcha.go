// Package captcha implements the anti-automation challenge core: one-time
// visual challenges, their time-bounded storage, and the gate that every
// write request must pass.
package captcha

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/uvensys/pchan"
)

// Challenge is a single issued captcha instance. The image is returned to
// the client at issuance and is not reconstructible afterwards; only the
// answer and issuance time are stored.
type Challenge struct {
	ID       string    `json:"id"`
	Answer   string    `json:"answer"`
	IssuedAt time.Time `json:"issuedAt"`

	// Image is a data URI holding a PNG rendering of Answer.
	Image string `json:"-"`
}

const answerAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate creates a fresh challenge: an unguessable hex ID, a short
// lowercase alphanumeric answer, and a distorted raster of that answer.
// It touches no shared state.
func Generate() (*Challenge, error) {
	idBytes := make([]byte, pchan.CaptchaIDBytes)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("captcha: can't read entropy: %w", err)
	}

	answer, err := randomAnswer()
	if err != nil {
		return nil, err
	}

	image, err := renderImage(answer)
	if err != nil {
		return nil, err
	}

	return &Challenge{
		ID:       hex.EncodeToString(idBytes),
		Answer:   answer,
		IssuedAt: time.Now(),
		Image:    image,
	}, nil
}

func randomAnswer() (string, error) {
	max := big.NewInt(int64(len(answerAlphabet)))

	buf := make([]byte, pchan.CaptchaAnswerLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("captcha: can't read entropy: %w", err)
		}
		buf[i] = answerAlphabet[n.Int64()]
	}

	return string(buf), nil
}
