package importer

import (
	"regexp"
	"strconv"
	"strings"
)

type Category int

const (
	CategoryUnknown Category = iota
	CategoryExerciseIndex
	CategorySubExercise
	CategoryStep
	CategoryReferences
	CategoryFrame
)

func (c Category) String() string {
	switch c {
	case CategoryExerciseIndex:
		return "exercise-index"
	case CategorySubExercise:
		return "sub-exercise"
	case CategoryStep:
		return "step"
	case CategoryReferences:
		return "references"
	case CategoryFrame:
		return "frame"
	default:
		return "unknown"
	}
}

var (
	reExerciseIndex = regexp.MustCompile(`^e(\d+)\.html$`)
	reSubExercise   = regexp.MustCompile(`^e(\d+)-(\d+)\.html$`)
	reStep          = regexp.MustCompile(`^e(\d+)-(\d+)-A(\d+)\.html$`)
	reReferences    = regexp.MustCompile(`e(\d+)-(\d+)-REFS\.html$`)
)

// LegacyFile is a classified legacy page. Number fields hold the decimal value without
// leading zeros, so e1-1-A01.html and e1-1-A1.html name the same step; they are empty where
// the category has no such level.
type LegacyFile struct {
	Name     string
	Category Category
	Exercise string
	Sub      string
	Step     string
}

// Classify maps a filename to its category. Patterns are tried in a fixed order and the
// first match wins.
func Classify(filename string) LegacyFile {
	f := LegacyFile{Name: filename}

	if m := reExerciseIndex.FindStringSubmatch(filename); m != nil {
		n, ok := canonical(m[1:])
		if !ok {
			return f
		}
		f.Category = CategoryExerciseIndex
		f.Exercise = n[0]
		return f
	}
	if m := reSubExercise.FindStringSubmatch(filename); m != nil {
		n, ok := canonical(m[1:])
		if !ok {
			return f
		}
		f.Category = CategorySubExercise
		f.Exercise, f.Sub = n[0], n[1]
		return f
	}
	if m := reStep.FindStringSubmatch(filename); m != nil {
		n, ok := canonical(m[1:])
		if !ok {
			return f
		}
		f.Category = CategoryStep
		f.Exercise, f.Sub, f.Step = n[0], n[1], n[2]
		return f
	}
	if strings.HasSuffix(filename, "-REFS.html") {
		f.Category = CategoryReferences
		if m := reReferences.FindStringSubmatch(filename); m != nil {
			if n, ok := canonical(m[1:]); ok {
				f.Exercise, f.Sub = n[0], n[1]
			}
		}
		return f
	}
	if strings.HasSuffix(filename, "-frame.html") {
		f.Category = CategoryFrame
		return f
	}
	f.Category = CategoryUnknown
	return f
}

// canonical rewrites digit runs as plain decimals. Values that overflow an int are rejected.
func canonical(digits []string) ([]string, bool) {
	out := make([]string, len(digits))
	for i, d := range digits {
		n, err := strconv.Atoi(d)
		if err != nil {
			return nil, false
		}
		out[i] = strconv.Itoa(n)
	}
	return out, true
}

// Importable reports whether the file produces a record. Frames are navigation only and
// references files without an e<N>-<M> prefix have no parent to attach to.
func (f LegacyFile) Importable() bool {
	switch f.Category {
	case CategoryExerciseIndex, CategorySubExercise, CategoryStep:
		return true
	case CategoryReferences:
		return f.Exercise != "" && f.Sub != ""
	}
	return false
}
