package docs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPipeline(t *testing.T) (*Pipeline, *Store) {
	t.Helper()
	s := openTestStore(t)
	return NewPipeline(EmployeeDocExtractor(), s, DefaultThreshold), s
}

func TestIngestAcceptsCleanDocument(t *testing.T) {
	ctx := context.Background()
	p, s := testPipeline(t)

	rec, err := p.Ingest(ctx, "doc1.txt", cleanDoc)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, rec.Status)

	got, err := s.Get(ctx, "EMP-0042")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, "Rashid Al Mansoori", got.Fields["full_name"].Value)

	pending, err := s.PendingReview(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIngestQuarantinesLowConfidence(t *testing.T) {
	ctx := context.Background()
	p, s := testPipeline(t)

	rec, err := p.Ingest(ctx, "doc2.txt", messyDoc)
	require.NoError(t, err)
	assert.Equal(t, StatusException, rec.Status)

	// Never reaches the canonical store automatically.
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pending, err := s.PendingReview(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "EMP-0042", pending[0].NaturalKey)
	assert.Equal(t, ConfidenceHeuristic, pending[0].Fields["document_type"].Confidence,
		"per-field breakdown survives the queue")
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	p, s := testPipeline(t)

	_, err := p.Ingest(ctx, "doc1.txt", cleanDoc)
	require.NoError(t, err)
	n1, err := s.Count(ctx)
	require.NoError(t, err)

	// Second ingest of the same document: update, never insert.
	_, err = p.Ingest(ctx, "doc1-copy.txt", cleanDoc)
	require.NoError(t, err)
	n2, err := s.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, n1, n2)

	got, err := s.Get(ctx, "EMP-0042")
	require.NoError(t, err)
	assert.Equal(t, "doc1-copy.txt", got.Source, "re-ingest updated in place")
}

func TestCorrectedExceptionReentersCanonicalPath(t *testing.T) {
	ctx := context.Background()
	p, s := testPipeline(t)

	rec, err := p.Ingest(ctx, "doc2.txt", messyDoc)
	require.NoError(t, err)
	require.Equal(t, StatusException, rec.Status)

	pending, err := s.PendingReview(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	fixed := pending[0]
	for name, f := range fixed.Fields {
		fixed.Correct(name, f.Value)
	}
	require.NoError(t, p.Route(ctx, fixed))
	assert.Equal(t, StatusAccepted, fixed.Status)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = s.PendingReview(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "acceptance clears the queue entry")
}

func TestKeylessDocumentQueued(t *testing.T) {
	ctx := context.Background()
	p, s := testPipeline(t)

	rec, err := p.Ingest(ctx, "broken.txt", "Name: Nobody\n")
	require.NoError(t, err)
	assert.Equal(t, StatusException, rec.Status)

	pending, err := s.PendingReview(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUpsertRejectsMissingKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	assert.Error(t, s.Upsert(ctx, &Record{Source: "x"}))
}
