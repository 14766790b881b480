package detector

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			gray := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareImagePassthrough(t *testing.T) {
	data := encodeTestJPEG(t, 100, 80)

	out, err := PrepareImage(data, 200)
	if err != nil {
		t.Fatalf("PrepareImage failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("images within bounds should be returned unchanged")
	}
}

func TestPrepareImageDownscales(t *testing.T) {
	data := encodeTestJPEG(t, 400, 200)

	out, err := PrepareImage(data, 100)
	if err != nil {
		t.Fatalf("PrepareImage failed: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a decodable image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("resized to %dx%d; want 100x50 (aspect preserved)", bounds.Dx(), bounds.Dy())
	}
}

func TestPrepareImageInvalidData(t *testing.T) {
	if _, err := PrepareImage([]byte("not an image"), 100); err == nil {
		t.Error("expected an error for invalid image data")
	}
}
