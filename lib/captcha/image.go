package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	mrand "math/rand/v2"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/uvensys/pchan"
)

// noiseStrokes is the number of random line strokes painted over the
// background. The distortion parameters are a deterrence policy, not a
// correctness contract.
const noiseStrokes = 5

var (
	faceOnce sync.Once
	face     font.Face
	faceErr  error
)

func glyphFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			faceErr = err
			return
		}

		face, faceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    30,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})

	return face, faceErr
}

// renderImage draws text onto a fixed-size canvas with random colored line
// strokes and per-glyph jitter and rotation, and returns it as a PNG data
// URI. Glyph placement randomness comes from math/rand: it only has to make
// character segmentation annoying, not be unpredictable.
func renderImage(text string) (string, error) {
	fnt, err := glyphFace()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	dc := gg.NewContext(pchan.CaptchaWidth, pchan.CaptchaHeight)

	dc.SetHexColor("#f0f0f0")
	dc.Clear()

	for range noiseStrokes {
		dc.SetRGBA(mrand.Float64(), mrand.Float64(), mrand.Float64(), 0.7)
		dc.SetLineWidth(1)
		dc.DrawLine(
			mrand.Float64()*pchan.CaptchaWidth,
			mrand.Float64()*pchan.CaptchaHeight,
			mrand.Float64()*pchan.CaptchaWidth,
			mrand.Float64()*pchan.CaptchaHeight,
		)
		dc.Stroke()
	}

	dc.SetFontFace(fnt)
	dc.SetRGB(0, 0, 0)

	for i, ch := range text {
		x := 20 + float64(i)*25
		y := 30 + mrand.Float64()*10
		angle := (mrand.Float64() - 0.5) * 0.5

		dc.Push()
		dc.RotateAbout(angle, x, y)
		dc.DrawString(string(ch), x, y)
		dc.Pop()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
