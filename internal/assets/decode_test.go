package assets

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func encode(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecodeImageByExtension(t *testing.T) {
	cases := []struct {
		path, format string
	}{
		{"knob.png", "png"},
		{"plate.jpg", "jpeg"},
		{"plate.JPEG", "jpeg"},
		{"meter.gif", "gif"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			img, format, err := decodeImage(encode(t, tc.format), tc.path)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if img == nil || format != tc.format {
				t.Fatalf("got format %q, want %q", format, tc.format)
			}
		})
	}
}

func TestDecodeImageSniffsWithoutExtension(t *testing.T) {
	img, format, err := decodeImage(encode(t, "png"), "asset-no-ext")
	if err != nil || img == nil {
		t.Fatalf("sniff decode failed: %v", err)
	}
	if format != "png" {
		t.Fatalf("sniffed format %q, want png", format)
	}
}

func TestDecodeImageMismatchedExtensionFails(t *testing.T) {
	if _, _, err := decodeImage(encode(t, "png"), "lying.jpg"); err == nil {
		t.Fatal("png bytes behind a .jpg extension must fail the jpeg decoder")
	}
}

func TestDecodeImageGarbageFails(t *testing.T) {
	if _, _, err := decodeImage([]byte("garbage"), "x.png"); err == nil {
		t.Fatal("expected decode error")
	}
}
