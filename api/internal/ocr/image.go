package ocr

import (
	"bytes"
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultMaxPixels bounds the image handed to the model.
const DefaultMaxPixels = 18_000_000

// Prepared is the image as the model sees it.
type Prepared struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
	// Scale is Width divided by the source width; 1 when the image was not downscaled.
	Scale float64
}

// Prepare decodes raw (EXIF orientation applied), downscales it to at most maxPixels and
// re-encodes it as PNG.
func Prepare(raw []byte, maxPixels int) (Prepared, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Prepared{}, fmt.Errorf("decode image: %w", err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return Prepared{}, fmt.Errorf("decode image: empty %dx%d", w, h)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	scale := 1.0
	if total := w * h; total > maxPixels {
		scale = math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(int(float64(w)*scale), 1)
		newH := max(int(float64(h)*scale), 1)
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
		scale = float64(newW) / float64(w)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Prepared{}, fmt.Errorf("encode image: %w", err)
	}
	return Prepared{
		Data:   buf.Bytes(),
		MIME:   "image/png",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Scale:  scale,
	}, nil
}

// toSource maps a coordinate measured on the prepared image back onto the source image.
func (p Prepared) toSource(v int) int {
	if p.Scale <= 0 || p.Scale == 1 {
		return v
	}
	return int(math.Round(float64(v) / p.Scale))
}
