package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// encodePhoto builds a gradient fixture so re-encoding has something to
// compress.
func encodePhoto(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 90, 255})
		}
	}

	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func decodeResult(t *testing.T, photo *Photo) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding processed photo: %v", err)
	}
	return img
}

func TestProcessAcceptsJPEGAndPNG(t *testing.T) {
	for _, asPNG := range []bool{false, true} {
		photo, err := Process(bytes.NewReader(encodePhoto(t, 320, 240, asPNG)))
		if err != nil {
			t.Fatalf("Process (png=%v): %v", asPNG, err)
		}
		if photo.MIME != "image/jpeg" {
			t.Errorf("expected image/jpeg output, got %s", photo.MIME)
		}
		if len(photo.Data) == 0 {
			t.Error("expected photo bytes")
		}
	}
}

func TestProcessShrinksLargePhoto(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePhoto(t, 3200, 1800, false)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	b := decodeResult(t, photo).Bounds()
	if b.Dx() > maxPhotoDim || b.Dy() > maxPhotoDim {
		t.Errorf("photo not shrunk: %dx%d", b.Dx(), b.Dy())
	}
	// 16:9 input keeps its shape.
	if b.Dx() != maxPhotoDim || b.Dy() != maxPhotoDim*9/16 {
		t.Errorf("aspect ratio lost: %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessKeepsSmallPhoto(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePhoto(t, 640, 480, false)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	b := decodeResult(t, photo).Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("small photo was resized to %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("receipt.pdf contents"))); err == nil {
		t.Error("expected error for non-image upload")
	}
}

func TestProcessRejectsGIF(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("GIF89a\x01\x00\x01\x00"))); err == nil {
		t.Error("expected error for GIF upload")
	}
}
