package archive

import "strings"

// mimeTypes maps the file extensions the export is known to emit. MIME
// classification is by extension only; entry payloads are never sniffed.
var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"json": "application/json",
}

// MIMEFromName derives a MIME type from an entry name's extension.
// Unknown or missing extensions fall back to application/octet-stream.
func MIMEFromName(name string) string {
	ext := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i+1:]
	}
	if mime, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
