// internal/domain/models/document.go
package models

// Document kinds, decided from the declared content type.
const (
	DocumentPDF   = "pdf"
	DocumentImage = "image"
	DocumentOther = "other"
)

// UploadedDocument is a file the volunteer selected together with the text
// pulled out of it. Text may be empty (unsupported type) or an error
// placeholder when Failed is set.
type UploadedDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Kind        string `json:"kind"`
	Text        string `json:"text"`
	Failed      bool   `json:"failed,omitempty"`
}
