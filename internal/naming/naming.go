// Package naming derives content-addressed filenames for generated variants.
package naming

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
)

const digestLength = 6

// Digest returns the short content digest used in variant filenames.
func Digest(source []byte) string {
	sum := md5.Sum(source)
	return hex.EncodeToString(sum[:])[:digestLength]
}

// VariantFilename builds the canonical name for a generated file:
//
//	{basename}-{width}by{height}-{digest}{ext}
//
// Identical source bytes and identical resolved geometry always yield the
// same name, across renders and processes. The on-disk cache depends on
// this: a file that already exists under the derived name is reused without
// inspecting its content.
func VariantFilename(source []byte, width, height float64, basename, ext string) string {
	return fmt.Sprintf(
		"%s-%dby%d-%s%s",
		basename,
		int(math.Round(width)),
		int(math.Round(height)),
		Digest(source),
		ext,
	)
}
