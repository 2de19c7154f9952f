package vault

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// MaxDimension is the maximum width or height for stored originals.
const MaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// maskFactor controls how aggressively Mask destroys detail: the image is
// collapsed to 1/maskFactor of its size and stretched back.
const maskFactor = 12

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ProcessUpload reads raw upload bytes, validates the format by sniffing (not
// trusting client headers), downscales if larger than MaxDimension, and
// re-encodes as JPEG. The result is the canonical original: the only form
// that gets encrypted and stored.
func ProcessUpload(data []byte) ([]byte, error) {
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format %s: %w", detected, model.ErrAsset)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", model.ErrAsset)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", model.ErrAsset)
	}
	return buf.Bytes(), nil
}

// Mask produces the blurred public copy of an original. The blur is
// irreversible: the image is collapsed to a fraction of its resolution and
// stretched back, so the detail is gone from the output, not hidden in it.
// On failure callers must withhold the image and flag the item for manual
// review; serving the original instead is never acceptable.
func Mask(original []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("decoding original for masking: %w", model.ErrAsset)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	smallW, smallH := max(w/maskFactor, 1), max(h/maskFactor, 1)

	small := image.NewRGBA(image.Rect(0, 0, smallW, smallH))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, bounds, draw.Over, nil)

	blurred := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(blurred, blurred.Bounds(), small, small.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, blurred, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding masked image: %w", model.ErrAsset)
	}
	return buf.Bytes(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim, preserving
// aspect ratio. Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = max(int(float64(h)*float64(maxDim)/float64(w)), 1)
	} else {
		newH = maxDim
		newW = max(int(float64(w)*float64(maxDim)/float64(h)), 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
