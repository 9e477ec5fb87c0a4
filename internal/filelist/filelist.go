package filelist

import (
	"sync"

	"github.com/speculative-artefact/compactImg/internal/imagefile"
)

// List is the client-side collection of image records, ordered by
// insertion and keyed by record id. It is safe for concurrent use, but it
// is not a concurrency control: overlapping process requests for the same
// record are possible and the last applied response wins.
type List struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*imagefile.ImageRecord
}

func New() *List {
	return &List{
		byID: make(map[string]*imagefile.ImageRecord),
	}
}

// Merge appends newly uploaded records, de-duplicating by storage
// reference: a record whose reference already exists in the collection is
// dropped, not appended. Returns how many records were added.
func (l *List) Merge(records []*imagefile.ImageRecord) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, rec := range records {
		if rec == nil || l.hasReferenceLocked(rec.RawStorageReference) {
			continue
		}
		if _, ok := l.byID[rec.ID]; !ok {
			l.order = append(l.order, rec.ID)
		}
		l.byID[rec.ID] = rec
		added++
	}
	return added
}

func (l *List) hasReferenceLocked(ref string) bool {
	if ref == "" {
		return false
	}
	for _, rec := range l.byID {
		if rec.RawStorageReference == ref {
			return true
		}
	}
	return false
}

// BeginProcessing optimistically marks a record as processing before the
// process request is sent. Returns false when the id is unknown.
func (l *List) BeginProcessing(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byID[id]
	if !ok {
		return false
	}
	rec.Status = imagefile.StatusProcessing
	return true
}

// Apply overwrites the matching record with the handler's response. An
// unknown id is ignored.
func (l *List) Apply(record *imagefile.ImageRecord) {
	if record == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[record.ID]; !ok {
		return
	}
	l.byID[record.ID] = record
}

// Get returns a copy of the record with the given id.
func (l *List) Get(id string) (imagefile.ImageRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byID[id]
	if !ok {
		return imagefile.ImageRecord{}, false
	}
	return *rec, true
}

// Records returns copies of all records in insertion order.
func (l *List) Records() []imagefile.ImageRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]imagefile.ImageRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.byID[id])
	}
	return out
}

// AnyProcessing reports whether some record is currently processing. This
// is an advisory flag for UI gating, recomputed by scanning the whole
// collection.
func (l *List) AnyProcessing() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, rec := range l.byID {
		if rec.Status == imagefile.StatusProcessing {
			return true
		}
	}
	return false
}

// Len returns the number of records in the collection.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
