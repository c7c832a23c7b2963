package docs

import (
	"context"
	"log"
)

// Pipeline routes extracted records by confidence: at or above the
// threshold they are upserted into the canonical store, below it they
// are quarantined in the review queue. Never both, never neither.
type Pipeline struct {
	extractor *Extractor
	store     *Store
	threshold float64
}

// NewPipeline builds a pipeline. threshold <= 0 selects the default.
func NewPipeline(extractor *Extractor, store *Store, threshold float64) *Pipeline {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pipeline{extractor: extractor, store: store, threshold: threshold}
}

// Ingest extracts one document and routes the record. The returned
// record's Status tells the caller where it went.
func (p *Pipeline) Ingest(ctx context.Context, source, text string) (*Record, error) {
	rec := p.extractor.Extract(source, text)
	return rec, p.Route(ctx, rec)
}

// Route applies the confidence gate to an already-parsed record.
// Corrected exception records re-enter here: same shape, same path.
func (p *Pipeline) Route(ctx context.Context, rec *Record) error {
	conf := rec.Confidence()
	if rec.NaturalKey == "" || conf < p.threshold {
		rec.Status = StatusException
		log.Printf("[WARN] docs: %s confidence %.2f below %.2f, queued for review",
			recordLabel(rec), conf, p.threshold)
		return p.store.Enqueue(ctx, rec)
	}

	rec.Status = StatusAccepted
	if err := p.store.Upsert(ctx, rec); err != nil {
		return err
	}
	// An earlier exception for this document is now resolved.
	return p.store.Dequeue(ctx, rec)
}

func recordLabel(rec *Record) string {
	if rec.NaturalKey != "" {
		return "record " + rec.NaturalKey
	}
	return "document " + rec.Source
}
