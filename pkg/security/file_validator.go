package security

import (
	"bytes"
	"strings"
)

// ResumeFileType describes an accepted resume format.
type ResumeFileType struct {
	MIME      string
	Extension string
	magic     [][]byte
}

// Strict allowlist. Anything else, including application/octet-stream, is refused.
var resumeTypes = map[string]ResumeFileType{
	"application/pdf": {
		MIME:      "application/pdf",
		Extension: "pdf",
		magic:     [][]byte{{0x25, 0x50, 0x44, 0x46}}, // %PDF
	},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {
		MIME:      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension: "docx",
		magic:     [][]byte{{0x50, 0x4B, 0x03, 0x04}}, // ZIP (PK..)
	},
	"application/msword": {
		MIME:      "application/msword",
		Extension: "doc",
		magic:     [][]byte{{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}, // OLE Compound Document
	},
}

// LookupResumeType returns the accepted type for a declared MIME type.
// Parameters such as "; charset=" are ignored.
func LookupResumeType(mime string) (ResumeFileType, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	t, ok := resumeTypes[mime]
	return t, ok
}

// MatchesContent checks that the file header carries the magic bytes of the
// declared type. Used to detect spoofed uploads after the transfer completes.
func (t ResumeFileType) MatchesContent(header []byte) bool {
	for _, sig := range t.magic {
		if bytes.HasPrefix(header, sig) {
			return true
		}
	}
	return false
}

// MagicHeaderSize is enough bytes to check every signature above.
const MagicHeaderSize = 8
