// Package imaging prepares uploaded listing photos for storage. Photos live
// as JPEG blobs next to the item row, so every accepted upload is decoded,
// shrunk to a sensible display size and re-encoded.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// maxPhotoDim bounds the longer edge of a stored listing photo.
	maxPhotoDim = 1200

	// jpegQuality is the re-encode quality for stored photos.
	jpegQuality = 80
)

// Photo is a processed listing photo ready for storage.
type Photo struct {
	Data []byte
	MIME string
}

// Process turns an uploaded listing photo into a storable Photo. The format
// is sniffed from the bytes rather than trusted from the request; only JPEG
// and PNG uploads are accepted, and the output is always JPEG.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}

	switch detected := http.DetectContentType(data); detected {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("unsupported photo format %s, use JPEG or PNG", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	img = shrinkToFit(img, maxPhotoDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// shrinkToFit scales img down with Catmull-Rom so its longer edge is at most
// limit, keeping the aspect ratio. Photos already within the limit pass
// through untouched, never upscaled.
func shrinkToFit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= limit {
		return img
	}

	ratio := float64(limit) / float64(longest)
	w := max(int(float64(b.Dx())*ratio), 1)
	h := max(int(float64(b.Dy())*ratio), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
