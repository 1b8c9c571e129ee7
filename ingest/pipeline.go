package ingest

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pixelflow/imagestorebackend/catalog"
	"github.com/pixelflow/imagestorebackend/media"
	"github.com/pixelflow/imagestorebackend/models"
)

var (
	ingestTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagestore_ingest_total",
		Help: "Total number of ingestion attempts.",
	})
	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagestore_ingest_failures_total",
		Help: "Ingestion failures by pipeline stage.",
	}, []string{"stage"})
	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imagestore_ingest_duration_seconds",
		Help:    "Time spent ingesting one upload.",
		Buckets: prometheus.DefBuckets,
	})
)

// ProcessingError wraps a decode or preview failure that occurred after the
// original was already durably relocated. By the time a caller sees this
// error, the relocated original has been cleaned up and no catalog record
// exists.
type ProcessingError struct {
	Stage string // "metadata" or "preview"
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("ingest: %s step failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Pipeline orchestrates one upload from validated bytes to a committed
// catalog record: relocate original, extract metadata, generate preview,
// commit. Each durable step has a compensating delete that runs in reverse
// order when a later step fails.
type Pipeline struct {
	Catalog  *catalog.Store
	Store    media.Store
	Previews *media.PreviewGenerator
}

func NewPipeline(cat *catalog.Store, store media.Store, previews *media.PreviewGenerator) *Pipeline {
	return &Pipeline{Catalog: cat, Store: store, Previews: previews}
}

// Ingest runs the full pipeline for one upload. On any failure it returns
// with no catalog mutation and no stray files left in permanent storage.
func (p *Pipeline) Ingest(data io.Reader, declaredName, declaredMimeType string) (models.ImageRecord, error) {
	start := time.Now()
	ingestTotal.Inc()

	id := uuid.NewString()
	ext := media.CanonicalExtension(declaredName)
	storedFilename := id + ext
	previewFilename := id + media.PreviewFileExtension

	originalRelPath, err := p.Store.Save(media.AssetTypeOriginal, storedFilename, data)
	if err != nil {
		ingestFailures.WithLabelValues("relocate").Inc()
		return models.ImageRecord{}, fmt.Errorf("ingest: failed to store original for '%s': %w", declaredName, err)
	}

	originalFullPath, err := p.Store.GetFullPath(originalRelPath)
	if err != nil {
		ingestFailures.WithLabelValues("relocate").Inc()
		p.compensate(originalRelPath)
		return models.ImageRecord{}, fmt.Errorf("ingest: failed to resolve stored original '%s': %w", originalRelPath, err)
	}

	meta, err := media.ExtractMetadata(originalFullPath)
	if err != nil {
		ingestFailures.WithLabelValues("metadata").Inc()
		p.compensate(originalRelPath)
		return models.ImageRecord{}, &ProcessingError{Stage: "metadata", Err: err}
	}

	previewRelPath, err := p.Previews.Generate(originalFullPath, id)
	if err != nil {
		ingestFailures.WithLabelValues("preview").Inc()
		p.compensate(originalRelPath)
		return models.ImageRecord{}, &ProcessingError{Stage: "preview", Err: err}
	}

	// file size is measured from the relocated file, not the upload's
	// reported size
	info, err := os.Stat(originalFullPath)
	if err != nil {
		ingestFailures.WithLabelValues("stat").Inc()
		p.compensate(previewRelPath, originalRelPath)
		return models.ImageRecord{}, &ProcessingError{Stage: "metadata", Err: fmt.Errorf("stat relocated file: %w", err)}
	}
	meta.FileSize = info.Size()

	record := models.ImageRecord{
		ID:               id,
		OriginalFilename: declaredName,
		StoredFilename:   storedFilename,
		PreviewFilename:  previewFilename,
		OriginalPath:     originalRelPath,
		PreviewPath:      previewRelPath,
		MimeType:         media.MimeTypeForExtension(ext),
		PreviewMimeType:  media.PreviewMimeType,
		CreatedAt:        time.Now().Unix(),
		Metadata:         meta,
	}

	if err := p.Catalog.Add(record); err != nil {
		ingestFailures.WithLabelValues("commit").Inc()
		p.compensate(previewRelPath, originalRelPath)
		return models.ImageRecord{}, fmt.Errorf("ingest: failed to commit record for '%s': %w", declaredName, err)
	}

	ingestDuration.Observe(time.Since(start).Seconds())
	log.Printf("ingest: committed %s ('%s', %d bytes)", id, declaredName, meta.FileSize)
	return record, nil
}

// compensate deletes the given relative paths, most recent side effect
// first. Failures are logged and swallowed; the primary error already
// explains the user-visible failure.
func (p *Pipeline) compensate(relPaths ...string) {
	for _, rel := range relPaths {
		if err := p.Store.Delete(rel); err != nil {
			log.Printf("ingest: cleanup of %s failed: %v", rel, err)
		}
	}
}
