package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		expected LegacyFile
	}{
		{"e1.html", LegacyFile{Category: CategoryExerciseIndex, Exercise: "1"}},
		{"e12.html", LegacyFile{Category: CategoryExerciseIndex, Exercise: "12"}},
		{"e2-3.html", LegacyFile{Category: CategorySubExercise, Exercise: "2", Sub: "3"}},
		{"e2-3-A0.html", LegacyFile{Category: CategoryStep, Exercise: "2", Sub: "3", Step: "0"}},
		{"e10-11-A12.html", LegacyFile{Category: CategoryStep, Exercise: "10", Sub: "11", Step: "12"}},
		{"e1-1-A01.html", LegacyFile{Category: CategoryStep, Exercise: "1", Sub: "1", Step: "1"}},
		{"e02-03-A004.html", LegacyFile{Category: CategoryStep, Exercise: "2", Sub: "3", Step: "4"}},
		{"e007.html", LegacyFile{Category: CategoryExerciseIndex, Exercise: "7"}},
		{"e2-3-REFS.html", LegacyFile{Category: CategoryReferences, Exercise: "2", Sub: "3"}},
		{"e02-03-REFS.html", LegacyFile{Category: CategoryReferences, Exercise: "2", Sub: "3"}},
		{"e99999999999999999999.html", LegacyFile{Category: CategoryUnknown}},
		{"misc-REFS.html", LegacyFile{Category: CategoryReferences}},
		{"e2-3-frame.html", LegacyFile{Category: CategoryFrame}},
		{"index.html", LegacyFile{Category: CategoryUnknown}},
		{"e1.htm", LegacyFile{Category: CategoryUnknown}},
		{"E1.html", LegacyFile{Category: CategoryUnknown}},
		{"xe1.html", LegacyFile{Category: CategoryUnknown}},
		{"e1-2-B3.html", LegacyFile{Category: CategoryUnknown}},
		{"e1-.html", LegacyFile{Category: CategoryUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expected.Name = tt.name
			assert.Equal(t, tt.expected, Classify(tt.name))
		})
	}
}

func TestImportable(t *testing.T) {
	assert.True(t, Classify("e1.html").Importable())
	assert.True(t, Classify("e1-2.html").Importable())
	assert.True(t, Classify("e1-2-A3.html").Importable())
	assert.True(t, Classify("e1-2-REFS.html").Importable())
	assert.False(t, Classify("misc-REFS.html").Importable())
	assert.False(t, Classify("e1-2-frame.html").Importable())
	assert.False(t, Classify("notes.html").Importable())
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "sub-exercise", CategorySubExercise.String())
	assert.Equal(t, "unknown", Category(42).String())
}
