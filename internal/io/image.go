package ioutils

import (
	"bytes"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// imageExtensions maps registered decoder names to file extensions.
var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
}

// DetectImageExtension sniffs image data and returns a matching extension,
// including the dot.
//
// Only the image header is decoded (image.DecodeConfig), so this is cheap
// even for large files. The second return value is false when the data is
// not in any registered format.
//
// Example:
//
//	ext, ok := DetectImageExtension(data)
//	if !ok {
//	    ext = ".png"
//	}
func DetectImageExtension(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[format]
	return ext, ok
}
