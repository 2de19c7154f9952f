package vault

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// testImagePNG renders a sharp black/white split so masking has detail to
// destroy.
func testImagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x >= w/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessUpload(t *testing.T) {
	data := testImagePNG(t, 400, 300)

	out, err := ProcessUpload(data)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %q", format)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 300 {
		t.Errorf("expected 400x300, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestProcessUploadDownscales(t *testing.T) {
	data := testImagePNG(t, 2048, 512)

	out, err := ProcessUpload(data)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != MaxDimension {
		t.Errorf("expected width %d, got %d", MaxDimension, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 256 {
		t.Errorf("expected height 256, got %d", img.Bounds().Dy())
	}
}

func TestProcessUploadRejectsNonImages(t *testing.T) {
	_, err := ProcessUpload([]byte("<html>not an image</html>"))
	if !errors.Is(err, model.ErrAsset) {
		t.Errorf("expected ErrAsset, got %v", err)
	}

	_, err = ProcessUpload([]byte{0x00, 0x01, 0x02, 0x03})
	if !errors.Is(err, model.ErrAsset) {
		t.Errorf("expected ErrAsset, got %v", err)
	}
}

func TestMaskDestroysDetail(t *testing.T) {
	original, err := ProcessUpload(testImagePNG(t, 240, 240))
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	masked, err := Mask(original)
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if bytes.Equal(masked, original) {
		t.Fatal("masked output is identical to the original")
	}

	img, err := jpeg.Decode(bytes.NewReader(masked))
	if err != nil {
		t.Fatalf("decoding masked image: %v", err)
	}
	if img.Bounds().Dx() != 240 || img.Bounds().Dy() != 240 {
		t.Errorf("expected masked image to keep dimensions, got %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy())
	}

	// The sharp edge at the center must be gone: the pixel just left of the
	// split can no longer be near-black.
	r, g, b, _ := img.At(118, 120).RGBA()
	if r>>8 < 32 && g>>8 < 32 && b>>8 < 32 {
		t.Error("expected the hard edge to be blurred away")
	}
}

func TestMaskRejectsGarbage(t *testing.T) {
	_, err := Mask([]byte("definitely not an image"))
	if !errors.Is(err, model.ErrAsset) {
		t.Errorf("expected ErrAsset, got %v", err)
	}
}
