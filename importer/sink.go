package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
	"github.com/vnkhanh/dbsec-lab/store"
)

// SaveResult counts the outcome of a best-effort bulk write.
type SaveResult struct {
	Saved  int      `json:"saved"`
	Failed []string `json:"failed,omitempty"`
}

// SaveAll upserts every record. A failing record is logged and skipped; the batch goes on.
func SaveAll(ctx context.Context, contents store.ContentStore, records []models.ContentRecord, logger zerolog.Logger) SaveResult {
	var result SaveResult
	for i := range records {
		rec := records[i]
		if err := contents.Put(ctx, &rec); err != nil {
			logger.Error().Stack().Err(err).Str("id", rec.ID).Msg("failed to save record")
			result.Failed = append(result.Failed, rec.ID)
			continue
		}
		logger.Debug().Str("id", rec.ID).Str("title", rec.Title).Msg("saved record")
		result.Saved++
	}
	return result
}

// Snapshot is the portable backup of one run's record set.
type Snapshot struct {
	Exercises     map[string]models.ContentRecord `json:"exercises"`
	Steps         map[string]models.ContentRecord `json:"steps"`
	References    map[string]models.ContentRecord `json:"references"`
	MigrationDate time.Time                       `json:"migration_date"`
}

func (s *RecordSet) Snapshot(now time.Time) Snapshot {
	flatten := func(m map[string]*models.ContentRecord) map[string]models.ContentRecord {
		out := make(map[string]models.ContentRecord, len(m))
		for id, rec := range m {
			out[id] = *rec
		}
		return out
	}
	return Snapshot{
		Exercises:     flatten(s.Exercises),
		Steps:         flatten(s.Steps),
		References:    flatten(s.References),
		MigrationDate: now,
	}
}

// RecordSet turns a loaded snapshot back into a record set.
func (snap Snapshot) RecordSet() *RecordSet {
	set := NewRecordSet()
	fill := func(dst map[string]*models.ContentRecord, src map[string]models.ContentRecord) {
		for id, rec := range src {
			rec := rec
			dst[id] = &rec
		}
	}
	fill(set.Exercises, snap.Exercises)
	fill(set.Steps, snap.Steps)
	fill(set.References, snap.References)
	return set
}

func WriteSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return oops.New(err, "failed to encode snapshot")
	}
	return nil
}

// snapshotTime accepts RFC 3339 as well as the zone-less ISO form older exports used.
// A missing zone is read as UTC.
type snapshotTime time.Time

var snapshotTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func (t *snapshotTime) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*t = snapshotTime{}
		return nil
	}
	for _, layout := range snapshotTimeLayouts {
		if parsed, err := time.Parse(layout, *raw); err == nil {
			*t = snapshotTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", *raw)
}

// snapshotRecord shadows the record timestamps so they decode leniently.
type snapshotRecord struct {
	models.ContentRecord
	CreatedAt snapshotTime `json:"created_at"`
	UpdatedAt snapshotTime `json:"updated_at"`
}

type snapshotDocument struct {
	Exercises     map[string]snapshotRecord `json:"exercises"`
	Steps         map[string]snapshotRecord `json:"steps"`
	References    map[string]snapshotRecord `json:"references"`
	MigrationDate snapshotTime              `json:"migration_date"`
}

func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	var doc snapshotDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, oops.New(err, "failed to decode snapshot")
	}
	records := func(src map[string]snapshotRecord) map[string]models.ContentRecord {
		out := make(map[string]models.ContentRecord, len(src))
		for id, raw := range src {
			rec := raw.ContentRecord
			rec.CreatedAt = time.Time(raw.CreatedAt)
			rec.UpdatedAt = time.Time(raw.UpdatedAt)
			out[id] = rec
		}
		return out
	}
	return &Snapshot{
		Exercises:     records(doc.Exercises),
		Steps:         records(doc.Steps),
		References:    records(doc.References),
		MigrationDate: time.Time(doc.MigrationDate),
	}, nil
}
