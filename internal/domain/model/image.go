package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ImageRef is an opaque handle to an image owned by the caller.
type ImageRef string

// Image is an encoded image handed to the recognition providers. The bytes
// are passed through untouched; decoding is the providers' business.
type Image struct {
	Ref      ImageRef
	FileName string
	MIMEType string
	Data     []byte
}

// NewImage wraps data, deriving Ref from the SHA-256 of the bytes so the
// same upload always maps to the same handle.
func NewImage(fileName, mimeType string, data []byte) Image {
	sum := sha256.Sum256(data)
	return Image{
		Ref:      ImageRef(hex.EncodeToString(sum[:])),
		FileName: fileName,
		MIMEType: mimeType,
		Data:     data,
	}
}

// Format returns the short format name used by OCR APIs ("jpg", "png", ...),
// defaulting to "jpg".
func (i Image) Format() string {
	mt := strings.ToLower(i.MIMEType)
	switch {
	case strings.HasSuffix(mt, "/png"):
		return "png"
	case strings.HasSuffix(mt, "/webp"):
		return "webp"
	case strings.HasSuffix(mt, "/gif"):
		return "gif"
	case strings.HasSuffix(mt, "/bmp"):
		return "bmp"
	case strings.HasSuffix(mt, "/tiff"):
		return "tiff"
	default:
		return "jpg"
	}
}

// MediaType returns MIMEType or image/jpeg when it is unset.
func (i Image) MediaType() string {
	if i.MIMEType == "" {
		return "image/jpeg"
	}
	return i.MIMEType
}
