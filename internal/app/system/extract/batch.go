package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/samber/lo"
)

// Batch is the pending list of extracted documents for one intake form.
type Batch struct {
	mu   sync.RWMutex
	docs []models.UploadedDocument
}

// Add appends documents in the order given.
func (b *Batch) Add(docs ...models.UploadedDocument) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = append(b.docs, docs...)
}

// Remove deletes the document at index, keeping the order of the rest.
func (b *Batch) Remove(index int) (models.UploadedDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.docs) {
		return models.UploadedDocument{}, fmt.Errorf("no pending document at index %d", index)
	}
	removed := b.docs[index]
	b.docs = append(b.docs[:index:index], b.docs[index+1:]...)
	return removed, nil
}

// Documents returns a copy of the pending list.
func (b *Batch) Documents() []models.UploadedDocument {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.UploadedDocument(nil), b.docs...)
}

// Len returns the number of pending documents.
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Names returns the file names in order.
func (b *Batch) Names() []string {
	return lo.Map(b.Documents(), func(d models.UploadedDocument, _ int) string {
		return d.Name
	})
}

// CombinedText joins the non-empty texts, each under a header naming its
// file, for submission as the volunteer's report.
func (b *Batch) CombinedText() string {
	withText := lo.Filter(b.Documents(), func(d models.UploadedDocument, _ int) bool {
		return strings.TrimSpace(d.Text) != ""
	})
	parts := lo.Map(withText, func(d models.UploadedDocument, _ int) string {
		return "--- " + d.Name + " ---\n" + d.Text
	})
	return strings.Join(parts, "\n\n")
}

// Reset empties the list.
func (b *Batch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = nil
}
