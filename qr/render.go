package qr

import (
	"fmt"
	"image"
	_ "image/png"
	"io"

	"tool_inventory/models"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	qrgen "github.com/skip2/go-qrcode"
)

// ModulePixels is the edge length of one code module in the raster.
const ModulePixels = 10

// Render draws text as a PNG at the highest error-correction level.
func Render(text string) ([]byte, error) {
	png, err := qrgen.Encode(text, qrgen.Highest, -ModulePixels)
	if err != nil {
		return nil, fmt.Errorf("render code: %w", err)
	}
	return png, nil
}

// DecodeImage reads the code out of an image and returns its text.
func DecodeImage(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("%w: image: %v", models.ErrMalformedPayload, err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: bitmap: %v", models.ErrMalformedPayload, err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("%w: no code found: %v", models.ErrMalformedPayload, err)
	}
	return res.GetText(), nil
}
