package bank

import (
	"bytes"
	"encoding/base64"
)

var pdfMagic = []byte("%PDF")

// validPDF reports whether data starts with the PDF magic bytes.
func validPDF(data []byte) bool {
	return len(data) >= len(pdfMagic) && bytes.HasPrefix(data, pdfMagic)
}

// decodePDF decodes a base64 document and verifies the magic bytes.
// Anything that does not decode to a PDF is treated as absent rather
// than propagated as a corrupt document.
func decodePDF(encoded string) ([]byte, bool) {
	if encoded == "" {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	if !validPDF(data) {
		return nil, false
	}
	return data, true
}
