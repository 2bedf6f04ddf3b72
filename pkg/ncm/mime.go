package ncm

import (
	"bytes"
)

// ImageMIME sniffs the cover image: png when it starts with the full PNG signature,
// jpeg for anything else
func ImageMIME(img []byte) string {
	if bytes.HasPrefix(img, PNGSignature) {
		return MIMEPNG
	}
	return MIMEJPEG
}
