package gear

import "image"

// Bitmap is the decoded image handle installed on descriptors and controls
// after a successful asset fetch. The presentation layer reads the pixels;
// the core only moves the handle around.
type Bitmap struct {
	Image      image.Image
	Format     string
	SourcePath string

	// Placeholder marks the constant fallback faceplate installed when a
	// decode fails. Label carries the text the presentation layer renders
	// over it.
	Placeholder bool
	Label       string
}
