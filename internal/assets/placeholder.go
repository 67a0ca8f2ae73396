package assets

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/rackworks/gearrack/internal/gear"
)

const (
	placeholderWidth  = 256
	placeholderHeight = 96
)

var placeholderFill = color.RGBA{R: 0x6e, G: 0x6e, B: 0x6e, A: 0xff}

// placeholderBitmap is the constant fallback faceplate: a neutral fill plus
// an "unavailable" label for the presentation layer to render. Installing
// it means downstream layout never special-cases a missing faceplate.
func placeholderBitmap(sourcePath string) *gear.Bitmap {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderFill}, image.Point{}, draw.Src)
	return &gear.Bitmap{
		Image:       img,
		Format:      "png",
		SourcePath:  sourcePath,
		Placeholder: true,
		Label:       "unavailable",
	}
}
