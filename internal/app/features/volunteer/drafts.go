package volunteer

import (
	"sync"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/extract"
	"github.com/dalemusser/clinsync/internal/domain/models"
)

// draft is one browser's unsubmitted intake: the pending document batch and
// the progress of the extraction currently running for it.
type draft struct {
	batch extract.Batch

	mu       sync.Mutex
	progress float64
	inFlight bool
	touched  time.Time
}

// begin claims the draft for an extraction. It fails when one is running.
func (d *draft) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight {
		return false
	}
	d.inFlight = true
	d.progress = 0
	return true
}

func (d *draft) setProgress(f float64) {
	d.mu.Lock()
	d.progress = f
	d.mu.Unlock()
}

// finish appends docs to the batch and releases the draft.
func (d *draft) finish(docs []models.UploadedDocument) {
	d.batch.Add(docs...)
	d.mu.Lock()
	d.inFlight = false
	d.mu.Unlock()
}

func (d *draft) status() (progress float64, inFlight bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress, d.inFlight
}

// Drafts holds intake drafts by intake id.
type Drafts struct {
	mu     sync.Mutex
	drafts map[string]*draft
	ttl    time.Duration
}

// NewDrafts returns an empty registry. A non-positive ttl disables Prune.
func NewDrafts(ttl time.Duration) *Drafts {
	return &Drafts{drafts: make(map[string]*draft), ttl: ttl}
}

func (ds *Drafts) get(id string) *draft {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	d, ok := ds.drafts[id]
	if !ok {
		d = &draft{}
		ds.drafts[id] = d
	}
	d.mu.Lock()
	d.touched = time.Now()
	d.mu.Unlock()
	return d
}

// Prune drops drafts idle for longer than the TTL and returns how many went.
// Drafts with an extraction in flight are kept.
func (ds *Drafts) Prune() int {
	if ds.ttl <= 0 {
		return 0
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	cutoff := time.Now().Add(-ds.ttl)
	n := 0
	for id, d := range ds.drafts {
		d.mu.Lock()
		expired := !d.inFlight && d.touched.Before(cutoff)
		d.mu.Unlock()
		if expired {
			delete(ds.drafts, id)
			n++
		}
	}
	return n
}

// Len returns the number of live drafts.
func (ds *Drafts) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.drafts)
}
