// Package extract turns uploaded medical documents into plain text.
//
// PDFs are read through their text layer and images are run through OCR.
// A Pipeline processes one batch at a time, strictly in order, and reports
// progress as each file starts. A file that cannot be read does not stop the
// batch; its text becomes a readable error placeholder.
package extract

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/metrics"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressFunc receives the completed fraction of a batch, from 0 to 1.
type ProgressFunc func(fraction float64)

// Options configures a Pipeline. Nil engines fall back to PDFText and OCR
// and are only built when a file of that kind first arrives.
type Options struct {
	PDF          Extractor
	OCR          Extractor
	OCRLanguages []string
	Log          *zap.Logger
}

// Pipeline owns the extraction engines. Only one batch runs at a time.
type Pipeline struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex // held for a whole batch
	busy atomic.Bool

	pdf Extractor
	ocr Extractor
}

// New returns a pipeline. Engines are created lazily.
func New(opts Options) *Pipeline {
	logger := opts.Log
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, log: logger}
}

// Busy reports whether a batch is in flight.
func (p *Pipeline) Busy() bool { return p.busy.Load() }

// ExtractAll extracts every file in order and returns one document per file.
// progress may be nil.
func (p *Pipeline) ExtractAll(ctx context.Context, files []File, progress ProgressFunc) []models.UploadedDocument {
	p.mu.Lock()
	p.busy.Store(true)
	defer func() {
		p.busy.Store(false)
		p.mu.Unlock()
	}()

	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}

	docs := make([]models.UploadedDocument, 0, len(files))
	total := float64(len(files))
	for i, f := range files {
		report(float64(i) / total)
		docs = append(docs, p.extractOne(ctx, f))
	}
	report(1)
	return docs
}

func (p *Pipeline) extractOne(ctx context.Context, f File) models.UploadedDocument {
	doc := models.UploadedDocument{
		ID:          uuid.NewString(),
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size(),
		Kind:        Classify(f.ContentType),
	}

	var engine Extractor
	switch doc.Kind {
	case models.DocumentPDF:
		engine = p.pdfEngine()
	case models.DocumentImage:
		engine = p.ocrEngine()
	default:
		return doc
	}

	start := time.Now()
	text, err := engine.Extract(ctx, f.Data)
	metrics.Extraction(doc.Kind, err == nil, time.Since(start))
	if err != nil {
		doc.Text = Placeholder(f.Name, err)
		p.log.Warn("document extraction failed",
			zap.String("name", f.Name),
			zap.String("kind", doc.Kind),
			zap.Error(faults.Wrap(faults.ErrExtractionFailed, f.Name, err)))
		doc.Failed = true
		return doc
	}
	doc.Text = text
	return doc
}

// Placeholder is the text stored for a document whose extraction failed.
func Placeholder(name string, err error) string {
	return fmt.Sprintf("[Error extracting text from %s: %s]", name, err.Error())
}

// pdfEngine and ocrEngine run with mu held.
func (p *Pipeline) pdfEngine() Extractor {
	if p.pdf == nil {
		p.pdf = p.opts.PDF
		if p.pdf == nil {
			p.pdf = PDFText{}
		}
	}
	return p.pdf
}

func (p *Pipeline) ocrEngine() Extractor {
	if p.ocr == nil {
		p.ocr = p.opts.OCR
		if p.ocr == nil {
			p.ocr = OCR{Languages: p.opts.OCRLanguages}
		}
	}
	return p.ocr
}
