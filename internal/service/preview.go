package service

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	previewMaxEdge = 320
	previewQuality = 80
	previewSuffix  = ".preview.webp"
	previewMIME    = "image/webp"

	// maxPreviewPixels bounds decode work for hostile headers.
	maxPreviewPixels = 40_000_000
)

type preview struct {
	data          []byte
	width, height int
}

// buildPreview decodes an uploaded image and re-encodes it as a small WebP.
func buildPreview(data []byte) (*preview, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width*cfg.Height > maxPreviewPixels {
		return nil, image.ErrFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	encoded, err := encodeWebP(resizeToFit(src, previewMaxEdge, previewMaxEdge), previewQuality)
	if err != nil {
		return nil, err
	}
	return &preview{data: encoded, width: cfg.Width, height: cfg.Height}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
