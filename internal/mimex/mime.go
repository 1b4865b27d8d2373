// Package mimex infers MIME types from file names and classifies them into
// the coarse kinds used for file icons.
package mimex

import "strings"

// OctetStream is returned for unknown extensions.
const OctetStream = "application/octet-stream"

var typesByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip":  "application/zip",
	"rar":  "application/x-rar-compressed",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"txt":  "text/plain",
	"json": "application/json",
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
}

// TypeByName returns the MIME type for the extension of name, compared
// case-insensitively. A name without a dot is treated as its own extension.
func TypeByName(name string) string {
	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	if t, ok := typesByExt[ext]; ok {
		return t
	}
	return OctetStream
}

// Kind is the icon family of a MIME type.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindPDF         Kind = "pdf"
	KindSpreadsheet Kind = "spreadsheet"
	KindArchive     Kind = "archive"
	KindCode        Kind = "code"
	KindDocument    Kind = "document"
	KindOther       Kind = "other"
)

// KindOf classifies a MIME type. Checks run in order, so
// "application/vnd.ms-excel" is a spreadsheet and not a document.
func KindOf(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	case strings.Contains(mime, "pdf"):
		return KindPDF
	case containsAny(mime, "spreadsheet", "excel", "csv"):
		return KindSpreadsheet
	case containsAny(mime, "zip", "rar", "archive"):
		return KindArchive
	case containsAny(mime, "javascript", "json", "html", "css", "xml"):
		return KindCode
	case containsAny(mime, "text", "document", "word"):
		return KindDocument
	}
	return KindOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Glyph is a short terminal marker for the kind.
func (k Kind) Glyph() string {
	switch k {
	case KindImage:
		return "[img]"
	case KindVideo:
		return "[vid]"
	case KindAudio:
		return "[aud]"
	case KindPDF:
		return "[pdf]"
	case KindSpreadsheet:
		return "[xls]"
	case KindArchive:
		return "[zip]"
	case KindCode:
		return "[src]"
	case KindDocument:
		return "[doc]"
	}
	return "[---]"
}
