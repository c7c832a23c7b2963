// Package app wires the configured pipelines into one batch run:
// read the input snapshot, transform, publish, archive, summarize.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moonwalk/moonwalk/internal/archive"
	"github.com/moonwalk/moonwalk/internal/audit"
	"github.com/moonwalk/moonwalk/internal/config"
	"github.com/moonwalk/moonwalk/internal/docs"
	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/internal/store"
	"github.com/moonwalk/moonwalk/internal/transform"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

// App runs the configured pipelines.
type App struct {
	cfg *config.Config
}

// New validates the configuration and prepares the run environment.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return &App{cfg: cfg}, nil
}

// Run executes every pipeline the mode selects. Each pipeline is
// independent; a documents failure does not unpublish sales.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.New().String()[:8]
	log.Printf("[INFO] run %s starting (mode %s)", runID, a.cfg.Mode)

	if a.cfg.ShouldRunSales() {
		if err := a.RunSales(ctx, runID); err != nil {
			return err
		}
	}
	if a.cfg.ShouldRunDocuments() {
		if err := a.RunDocuments(ctx); err != nil {
			return err
		}
	}
	log.Printf("[INFO] run %s finished", runID)
	return nil
}

// RunSales executes the sales pipeline end to end: discover and read
// the exports, build the customer dimension, the sales fact table and
// the line-item table, publish the typed snapshot atomically, then
// write the run summary and archive the published artifacts.
func (a *App) RunSales(ctx context.Context, runID string) error {
	started := time.Now().UTC()

	customers, err := a.readExport("customer")
	if err != nil {
		return err
	}
	orders, err := a.readExport("order")
	if err != nil {
		return err
	}
	invoices, err := a.readExport("invoice")
	if err != nil {
		return err
	}
	items, err := a.readExport("item")
	if err != nil {
		return err
	}
	legacy, err := a.readLegacy()
	if err != nil {
		return err
	}

	dim, err := transform.BuildCustomerDim(customers, legacy)
	if err != nil {
		return err
	}

	custSchema := transform.CustomersSchema()
	custResidues := typecast.GuardDomains(dim, custSchema)
	custTable, custAudits, err := typecast.CastTable(dim, custSchema)
	if err != nil {
		return err
	}

	sales, err := transform.BuildSales(transform.Inputs{
		Customers: customers,
		Orders:    orders,
		Invoices:  invoices,
		Legacy:    legacy,
		Dim:       dim,
	}, transform.Options{
		SubscriptionValidityDays: a.cfg.Sales.SubscriptionValidityDays,
	})
	if err != nil {
		return err
	}

	lineItems, err := transform.BuildItems(items, customers)
	if err != nil {
		return err
	}

	builder := store.NewBuilder(a.cfg.Sales.SnapshotDir)
	build, err := builder.Begin(ctx)
	if err != nil {
		return err
	}
	if err := build.WriteTable(ctx, custTable); err != nil {
		build.Abort()
		return err
	}
	if err := build.WriteTable(ctx, sales.Table); err != nil {
		build.Abort()
		return err
	}
	if err := build.WriteTable(ctx, lineItems.Table); err != nil {
		build.Abort()
		return err
	}
	if err := build.Commit(ctx); err != nil {
		return err
	}
	log.Printf("[INFO] published snapshot %s (%d sales rows, %d customers, %d items)",
		builder.LivePath(), sales.Table.NumRows(), custTable.NumRows(), lineItems.Table.NumRows())

	summary := &audit.Summary{
		RunID:     runID,
		Mode:      string(a.cfg.Mode),
		StartedAt: started,
	}
	summary.AddTable(audit.TableSummary{
		Name:     custSchema.Name,
		Rows:     custTable.NumRows(),
		Casts:    custAudits,
		Residues: custResidues,
	})
	summary.AddTable(audit.TableSummary{
		Name:       "sales",
		Rows:       sales.Table.NumRows(),
		Casts:      sales.Audits,
		Residues:   sales.Residues,
		Violations: sales.Violations,
	})
	summary.AddTable(audit.TableSummary{
		Name:     "items",
		Rows:     lineItems.Table.NumRows(),
		Casts:    lineItems.Audits,
		Residues: lineItems.Residues,
	})
	summary.FinishedAt = time.Now().UTC()
	if err := summary.Write(a.cfg.SummaryPath()); err != nil {
		return err
	}
	if loss := summary.TotalLoss(); loss > 0 {
		log.Printf("[WARN] run %s: %d values lost to failed casts, see %s",
			runID, loss, a.cfg.SummaryPath())
	}

	return a.archivePublished(ctx, runID, builder.LivePath())
}

// archivePublished ships the published snapshot and summary off-host
// when archiving is configured.
func (a *App) archivePublished(ctx context.Context, runID, livePath string) error {
	if !a.cfg.Archive.Enabled {
		return nil
	}
	arch, err := a.newArchive(ctx)
	if err != nil {
		return err
	}
	if err := arch.Put(ctx, livePath, archive.SnapshotKey(runID)); err != nil {
		return err
	}
	if err := arch.Put(ctx, a.cfg.SummaryPath(), archive.SummaryKey(runID)); err != nil {
		return err
	}
	log.Printf("[INFO] archived snapshot as %s", archive.SnapshotKey(runID))
	return nil
}

func (a *App) newArchive(ctx context.Context) (archive.Archive, error) {
	if a.cfg.Archive.Type == "s3" {
		return archive.NewS3(ctx, archive.S3Config{
			Bucket:   a.cfg.Archive.S3.Bucket,
			Region:   a.cfg.Archive.S3.Region,
			Endpoint: a.cfg.Archive.S3.Endpoint,
		})
	}
	return archive.NewLocal(a.cfg.Archive.Path)
}

// RunDocuments ingests every document in the configured directory
// through the confidence gate.
func (a *App) RunDocuments(ctx context.Context) error {
	st, err := docs.OpenStore(a.cfg.Documents.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline := docs.NewPipeline(docs.EmployeeDocExtractor(), st, a.cfg.Documents.ConfidenceThreshold)

	names, err := listDocuments(a.cfg.Documents.Dir)
	if err != nil {
		return err
	}

	accepted, exceptions := 0, 0
	for _, name := range names {
		text, err := os.ReadFile(filepath.Join(a.cfg.Documents.Dir, name))
		if err != nil {
			return errors.NewInputError(errors.CodeUnreadableInput, "read document "+name, err)
		}
		rec, err := pipeline.Ingest(ctx, name, string(text))
		if err != nil {
			return err
		}
		if rec.Status == docs.StatusAccepted {
			accepted++
		} else {
			exceptions++
		}
	}
	log.Printf("[INFO] documents: %d ingested, %d accepted, %d queued for review",
		len(names), accepted, exceptions)
	return nil
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewInputError(errors.CodeFileNotFound, "read documents directory", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// readExport locates and reads the newest export matching pattern.
func (a *App) readExport(pattern string) (*frame.Frame, error) {
	path, err := frame.FindExport(a.cfg.Input.Dir, pattern)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] input %s: %s", pattern, filepath.Base(path))
	return frame.ReadCSV(path, pattern)
}

// readLegacy reads the legacy archive when present. A missing legacy
// file is a valid deployment (new installs have no archive), not a
// structural failure.
func (a *App) readLegacy() (*frame.Frame, error) {
	path := filepath.Join(a.cfg.Input.Dir, a.cfg.Input.LegacyFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[INFO] no legacy archive at %s, skipping", path)
		return nil, nil
	}
	return frame.ReadCSV(path, "legacy")
}
