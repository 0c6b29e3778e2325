package extract

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/samber/lo"
)

// AllowedExtensions are the upload types the intake form accepts.
var AllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

// File is one selected upload awaiting extraction.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Classify maps a declared content type to a document kind.
func Classify(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return models.DocumentPDF
	case strings.Contains(ct, "image/"):
		return models.DocumentImage
	default:
		return models.DocumentOther
	}
}

// FromMultipart reads an uploaded part, enforcing maxBytes and the allowed
// extensions. When the browser sends no usable content type it is sniffed
// from the data.
func FromMultipart(fh *multipart.FileHeader, maxBytes int64) (File, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !lo.Contains(AllowedExtensions, ext) {
		return File{}, fmt.Errorf("%s: unsupported file type", fh.Filename)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return File{}, fmt.Errorf("%s: file exceeds %d MB", fh.Filename, maxBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer src.Close()

	r := io.Reader(src)
	if maxBytes > 0 {
		r = io.LimitReader(src, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return File{}, fmt.Errorf("%s: file exceeds %d MB", fh.Filename, maxBytes>>20)
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return File{Name: fh.Filename, ContentType: ct, Data: data}, nil
}
