// Package resolver turns catalog-relative resource paths into absolute
// URLs. The catalog serves schemas under a units/ prefix and images under an
// assets/ prefix; descriptors are free to reference either form, or a fully
// absolute location.
package resolver

import (
	"strings"
)

const (
	schemaPrefix = "units/"
	assetPrefix  = "assets/"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

type Resolver struct {
	baseURL string
}

func New(baseURL string) *Resolver {
	return &Resolver{baseURL: strings.TrimRight(baseURL, "/") + "/"}
}

// Resolve applies the fixed prefix rules:
//   - absolute URLs and filesystem-absolute paths pass through
//   - paths already under units/ or assets/ join the base directly
//   - .json paths default to the schema prefix
//   - image extensions default to the asset prefix
//   - anything else joins the base directly
func (r *Resolver) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if isAbsolute(path) {
		return path
	}

	path = strings.TrimLeft(path, "/")
	if strings.HasPrefix(path, schemaPrefix) || strings.HasPrefix(path, assetPrefix) {
		return r.baseURL + path
	}

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".json") {
		return r.baseURL + schemaPrefix + path
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return r.baseURL + assetPrefix + path
		}
	}

	return r.baseURL + path
}

func isAbsolute(path string) bool {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return true
	}
	// Filesystem-absolute paths (local catalog mirrors) pass through too.
	return strings.HasPrefix(path, "file://") || strings.HasPrefix(path, "/")
}
