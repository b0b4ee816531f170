package importer

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vnkhanh/dbsec-lab/models"
)

// PlaceholderSteps is how many steps every sub-exercise is guaranteed to expose.
const PlaceholderSteps = 5

// RecordSet accumulates the records of one run. Each map is keyed by record id, so a page
// that derives an already-seen id replaces the earlier record.
type RecordSet struct {
	Exercises  map[string]*models.ContentRecord
	Steps      map[string]*models.ContentRecord
	References map[string]*models.ContentRecord
}

func NewRecordSet() *RecordSet {
	return &RecordSet{
		Exercises:  map[string]*models.ContentRecord{},
		Steps:      map[string]*models.ContentRecord{},
		References: map[string]*models.ContentRecord{},
	}
}

func ExerciseID(exercise string) string {
	return "exercise_" + exercise
}

func SubExerciseID(exercise, sub string) string {
	return fmt.Sprintf("exercise_%s_%s", exercise, sub)
}

func StepID(exercise, sub, step string) string {
	return fmt.Sprintf("step_%s_%s_%s", exercise, sub, step)
}

func ReferencesID(exercise, sub string) string {
	return fmt.Sprintf("references_%s_%s", exercise, sub)
}

// Add builds the record for one classified, extracted page and files it under its id.
func (s *RecordSet) Add(f LegacyFile, ex Extracted, now time.Time) (*models.ContentRecord, error) {
	rec := &models.ContentRecord{
		Title:     ex.Title,
		Content:   ex.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var (
		target map[string]*models.ContentRecord
		err    error
	)
	switch f.Category {
	case CategoryExerciseIndex:
		rec.ID = ExerciseID(f.Exercise)
		rec.ContentType = models.ContentExercise
		rec.Order, err = strconv.Atoi(f.Exercise)
		target = s.Exercises
	case CategorySubExercise:
		rec.ID = SubExerciseID(f.Exercise, f.Sub)
		rec.ContentType = models.ContentExercise
		rec.ParentID = strPtr(ExerciseID(f.Exercise))
		rec.Order, err = strconv.Atoi(f.Sub)
		target = s.Exercises
	case CategoryStep:
		rec.ID = StepID(f.Exercise, f.Sub, f.Step)
		rec.ContentType = models.ContentStep
		rec.ParentID = strPtr(SubExerciseID(f.Exercise, f.Sub))
		rec.Order, err = strconv.Atoi(f.Step)
		target = s.Steps
	case CategoryReferences:
		if f.Exercise == "" || f.Sub == "" {
			return nil, fmt.Errorf("%s: references file without exercise numbering", f.Name)
		}
		rec.ID = ReferencesID(f.Exercise, f.Sub)
		rec.ContentType = models.ContentReference
		rec.ParentID = strPtr(SubExerciseID(f.Exercise, f.Sub))
		rec.Order = models.ReferencesOrder
		target = s.References
	default:
		return nil, fmt.Errorf("%s: category %s is not importable", f.Name, f.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: bad numbering: %w", f.Name, err)
	}

	target[rec.ID] = rec
	return rec, nil
}

// AddPlaceholderSteps makes sure every sub-exercise has steps 1..PlaceholderSteps. Steps
// that already exist are left alone. It returns the number of steps it created.
func (s *RecordSet) AddPlaceholderSteps(now time.Time) int {
	created := 0
	for _, id := range sortedKeys(s.Exercises) {
		exercise := s.Exercises[id]
		if exercise.IsTopLevel() {
			continue
		}
		position := strings.TrimPrefix(exercise.ID, "exercise_")
		for i := 1; i <= PlaceholderSteps; i++ {
			stepID := fmt.Sprintf("step_%s_%d", position, i)
			if _, ok := s.Steps[stepID]; ok {
				continue
			}
			s.Steps[stepID] = &models.ContentRecord{
				ID:    stepID,
				Title: fmt.Sprintf("Step %d", i),
				Content: fmt.Sprintf("<p>This is step %d of %s.</p><p>Content will be added here.</p>",
					i, html.EscapeString(exercise.Title)),
				ContentType: models.ContentStep,
				ParentID:    strPtr(exercise.ID),
				Order:       i,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			created++
		}
	}
	return created
}

// DanglingParents lists parent ids referenced in the set but not present in it.
func (s *RecordSet) DanglingParents() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range []map[string]*models.ContentRecord{s.Exercises, s.Steps, s.References} {
		for _, rec := range m {
			parent := rec.Parent()
			if parent == "" || seen[parent] {
				continue
			}
			seen[parent] = true
			if _, ok := s.Exercises[parent]; !ok {
				out = append(out, parent)
			}
		}
	}
	sort.Strings(out)
	return out
}

// FillMissingParents adds a default exercise record for every dangling parent id, so the set
// is self-contained whatever the store already holds. Stub sub-exercises can themselves
// reference a missing exercise, so it repeats until nothing dangles.
func (s *RecordSet) FillMissingParents(now time.Time) []string {
	var stubs []string
	skip := map[string]bool{}
	for {
		added := false
		for _, id := range s.DanglingParents() {
			if skip[id] {
				continue
			}
			skip[id] = true
			rec, ok := stubExercise(id, now)
			if !ok {
				continue
			}
			s.Exercises[id] = rec
			stubs = append(stubs, id)
			added = true
		}
		if !added {
			return stubs
		}
	}
}

func stubExercise(id string, now time.Time) (*models.ContentRecord, bool) {
	parts := strings.Split(strings.TrimPrefix(id, "exercise_"), "_")
	if !strings.HasPrefix(id, "exercise_") || len(parts) > 2 {
		return nil, false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return nil, false
		}
	}

	rec := &models.ContentRecord{
		ID:          id,
		ContentType: models.ContentExercise,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(parts) == 1 {
		rec.Title = "Exercise " + parts[0]
		rec.Content = fmt.Sprintf("<h2>%s</h2>", rec.Title)
		rec.Order, _ = strconv.Atoi(parts[0])
	} else {
		rec.Title = fmt.Sprintf("Exercise %s.%s", parts[0], parts[1])
		rec.Content = fmt.Sprintf("<h3>%s</h3>", rec.Title)
		rec.ParentID = strPtr(ExerciseID(parts[0]))
		rec.Order, _ = strconv.Atoi(parts[1])
	}
	return rec, true
}

func (s *RecordSet) Len() int {
	return len(s.Exercises) + len(s.Steps) + len(s.References)
}

// Records returns exercises, then steps, then references, each sorted by id.
func (s *RecordSet) Records() []models.ContentRecord {
	out := make([]models.ContentRecord, 0, s.Len())
	for _, m := range []map[string]*models.ContentRecord{s.Exercises, s.Steps, s.References} {
		for _, id := range sortedKeys(m) {
			out = append(out, *m[id])
		}
	}
	return out
}

func sortedKeys(m map[string]*models.ContentRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func strPtr(s string) *string {
	return &s
}
