package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
	"github.com/vnkhanh/dbsec-lab/store"
)

// Archiver receives a copy of the snapshot; utils.ObjectStore satisfies it.
type Archiver interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type Options struct {
	SaveToDB   bool
	ExportJSON bool
	OutputPath string
	// Archive also uploads the snapshot through the Archiver.
	Archive bool
}

type Summary struct {
	Files        int
	Skipped      int
	Failed       int
	Exercises    int
	Steps        int
	References   int
	Placeholders int
	Stubs        int
	Save         *SaveResult
	SnapshotPath string
	ArchiveURL   string
}

func (s Summary) Total() int {
	return s.Exercises + s.Steps + s.References
}

func (s Summary) Print(w io.Writer) {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\nMIGRATION SUMMARY\n%s\n", line, line)
	fmt.Fprintf(w, "Exercises: %d\n", s.Exercises)
	fmt.Fprintf(w, "Steps: %d\n", s.Steps)
	fmt.Fprintf(w, "References: %d\n", s.References)
	fmt.Fprintf(w, "Total items: %d\n", s.Total())
	if s.Save != nil {
		fmt.Fprintf(w, "Saved: %d (failed: %d)\n", s.Save.Saved, len(s.Save.Failed))
	}
	if s.SnapshotPath != "" {
		fmt.Fprintf(w, "Snapshot: %s\n", s.SnapshotPath)
	}
	if s.ArchiveURL != "" {
		fmt.Fprintf(w, "Archived: %s\n", s.ArchiveURL)
	}
	fmt.Fprintln(w, line)
}

// Migrator runs the one-shot legacy import: parse a directory of pages, complete the
// hierarchy, then export and/or persist it. Contents and archive may be nil when the
// corresponding output is disabled.
type Migrator struct {
	dir      string
	contents store.ContentStore
	archive  Archiver
	logger   zerolog.Logger
	now      func() time.Time
}

func NewMigrator(dir string, contents store.ContentStore, archive Archiver, logger zerolog.Logger) *Migrator {
	return &Migrator{
		dir:      dir,
		contents: contents,
		archive:  archive,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ParseDir reads every *.html file in the directory into a record set. Per-file failures
// are logged and counted, never returned.
func (m *Migrator) ParseDir(summary *Summary) (*RecordSet, error) {
	// os.ReadDir returns entries sorted by filename, so last-write-wins is deterministic.
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, oops.New(err, "failed to read %s", m.dir)
	}

	set := NewRecordSet()
	now := m.now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		summary.Files++

		f := Classify(entry.Name())
		if !f.Importable() {
			if f.Category == CategoryUnknown {
				m.logger.Debug().Str("file", f.Name).Msg("skipping file with unknown pattern")
			}
			summary.Skipped++
			continue
		}

		if err := m.parseFile(set, f, now); err != nil {
			m.logger.Error().Stack().Err(err).Str("file", f.Name).Msg("failed to parse file")
			summary.Failed++
		}
	}

	m.logger.Info().
		Int("exercises", len(set.Exercises)).
		Int("steps", len(set.Steps)).
		Int("references", len(set.References)).
		Msg("parsed legacy pages")
	return set, nil
}

func (m *Migrator) parseFile(set *RecordSet, f LegacyFile, now time.Time) error {
	src, err := os.ReadFile(filepath.Join(m.dir, f.Name))
	if err != nil {
		return err
	}
	ex, err := Extract(f, src)
	if err != nil {
		return err
	}
	rec, err := set.Add(f, ex, now)
	if err != nil {
		return err
	}
	m.logger.Info().Str("file", f.Name).Str("id", rec.ID).Str("title", rec.Title).Msgf("parsed %s", f.Category)
	return nil
}

func (m *Migrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	m.logger.Info().Str("dir", m.dir).Msg("starting content migration")

	summary := &Summary{}
	set, err := m.ParseDir(summary)
	if err != nil {
		return nil, err
	}

	now := m.now()
	stubs := set.FillMissingParents(now)
	for _, id := range stubs {
		m.logger.Warn().Str("id", id).Msg("created default parent for orphaned pages")
	}
	summary.Stubs = len(stubs)
	summary.Placeholders = set.AddPlaceholderSteps(now)
	m.logger.Info().Int("placeholders", summary.Placeholders).Int("steps", len(set.Steps)).Msg("created placeholder steps")

	summary.Exercises = len(set.Exercises)
	summary.Steps = len(set.Steps)
	summary.References = len(set.References)

	// export and store write are independent: a failed export must not stop the save
	var exportErr error
	if opts.ExportJSON {
		exportErr = m.export(ctx, set.Snapshot(now), opts, summary)
	}

	if opts.SaveToDB {
		if m.contents == nil {
			return summary, errors.Join(exportErr, errors.New("no content store configured"))
		}
		result := SaveAll(ctx, m.contents, m.withoutStoredStubs(ctx, set.Records(), stubs), m.logger)
		summary.Save = &result
		m.logger.Info().Int("saved", result.Saved).Int("failed", len(result.Failed)).Msg("saved content to store")
	}

	if exportErr != nil {
		return summary, exportErr
	}
	m.logger.Info().Msg("migration completed")
	return summary, nil
}

// withoutStoredStubs drops default parents whose id already exists in the store, so a real
// record saved by an earlier run is never replaced by a stub.
func (m *Migrator) withoutStoredStubs(ctx context.Context, records []models.ContentRecord, stubs []string) []models.ContentRecord {
	if len(stubs) == 0 {
		return records
	}
	isStub := make(map[string]bool, len(stubs))
	for _, id := range stubs {
		isStub[id] = true
	}
	kept := records[:0:0]
	for _, rec := range records {
		if isStub[rec.ID] {
			if _, err := m.contents.Get(ctx, rec.ID); err == nil {
				m.logger.Info().Str("id", rec.ID).Msg("keeping stored parent over default")
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept
}

func (m *Migrator) export(ctx context.Context, snap Snapshot, opts Options, summary *Summary) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		return err
	}

	path := opts.OutputPath
	if path == "" {
		path = "migrated_content.json"
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return oops.New(err, "failed to write snapshot %s", path)
	}
	summary.SnapshotPath = path
	m.logger.Info().Str("path", path).Msg("exported content snapshot")

	if opts.Archive && m.archive != nil {
		key := fmt.Sprintf("snapshots/migrated_content_%s.json", snap.MigrationDate.Format("20060102_150405"))
		url, err := m.archive.Upload(ctx, key, "application/json", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return oops.New(err, "failed to archive snapshot")
		}
		summary.ArchiveURL = url
		m.logger.Info().Str("url", url).Msg("archived content snapshot")
	}
	return nil
}
