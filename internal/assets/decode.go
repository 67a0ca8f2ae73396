package assets

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"
)

// decodeImage picks a decoder by file extension and falls back to generic
// format sniffing when the extension is absent or unrecognized.
func decodeImage(data []byte, resourcePath string) (image.Image, string, error) {
	r := bytes.NewReader(data)
	switch strings.ToLower(path.Ext(resourcePath)) {
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(r)
		return img, "jpeg", err
	case ".png":
		img, err := png.Decode(r)
		return img, "png", err
	case ".gif":
		img, err := gif.Decode(r)
		return img, "gif", err
	default:
		return image.Decode(r)
	}
}
