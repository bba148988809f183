package realtime

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tidegram/backend/internal/models"
)

// Extension tables cover the formats clients actually upload; anything else
// falls through to MIME lookup and finally the generic file bucket. The
// stdlib mime table is OS-dependent, so common media types are listed
// explicitly.
var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".bmp": true, ".svg": true, ".heic": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".avi": true,
		".mkv": true, ".m4v": true,
	}
	documentExtensions = map[string]bool{
		".pdf": true, ".doc": true, ".docx": true, ".xls": true,
		".xlsx": true, ".ppt": true, ".pptx": true, ".txt": true,
		".csv": true, ".odt": true,
	}
)

// ClassifyAttachment maps an attachment reference into the closed type set
// {image, video, document, file}. The original filename wins over the URL
// path, since upload URLs often carry opaque object keys.
func ClassifyAttachment(rawURL, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if u, err := url.Parse(rawURL); err == nil {
			ext = strings.ToLower(path.Ext(u.Path))
		}
	}
	if ext == "" {
		return models.AttachmentFile
	}

	switch {
	case imageExtensions[ext]:
		return models.AttachmentImage
	case videoExtensions[ext]:
		return models.AttachmentVideo
	case documentExtensions[ext]:
		return models.AttachmentDocument
	}

	mtype := mime.TypeByExtension(ext)
	if i := strings.Index(mtype, ";"); i >= 0 {
		mtype = strings.TrimSpace(mtype[:i])
	}
	if mt := mimetype.Lookup(mtype); mt != nil {
		switch {
		case strings.HasPrefix(mt.String(), "image/"):
			return models.AttachmentImage
		case strings.HasPrefix(mt.String(), "video/"):
			return models.AttachmentVideo
		case strings.HasPrefix(mt.String(), "text/"):
			return models.AttachmentDocument
		}
	}
	return models.AttachmentFile
}
