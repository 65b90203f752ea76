package imaging

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"

	_ "image/png"

	"github.com/Konabiii/GBPL/internal/models"
)

// jpegQuality matches the fixed re-encode quality used for transmission.
const jpegQuality = 90

// Normalize decodes an uploaded raster image and re-encodes it as a
// 3-channel JPEG. Transparency is flattened onto white because JPEG has no
// alpha channel.
func Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &models.AppError{
			Kind:    models.ErrKindValidation,
			Message: "could not decode image (expected jpg/jpeg/png)",
			Err:     err,
		}
	}

	bounds := img.Bounds()
	rgb := image.NewRGBA(bounds)
	draw.Draw(rgb, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(rgb, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, &models.AppError{
			Kind:    models.ErrKindInternal,
			Message: "failed to encode image",
			Err:     err,
		}
	}

	return buf.Bytes(), nil
}
