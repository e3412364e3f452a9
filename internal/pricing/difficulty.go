package pricing

import (
	"fmt"
	"strings"
)

// DifficultyGrade is the shop-assigned machining complexity tier.
type DifficultyGrade string

const (
	GradeA DifficultyGrade = "A"
	GradeB DifficultyGrade = "B"
	GradeC DifficultyGrade = "C"
	GradeD DifficultyGrade = "D"
	GradeE DifficultyGrade = "E"
	GradeF DifficultyGrade = "F"
)

// Grades lists every grade in ascending difficulty.
var Grades = []DifficultyGrade{GradeA, GradeB, GradeC, GradeD, GradeE, GradeF}

var difficultyFactors = map[DifficultyGrade]float64{
	GradeA: 1.0,
	GradeB: 1.2,
	GradeC: 1.5,
	GradeD: 2.0,
	GradeE: 2.5,
	GradeF: 3.0,
}

// Factor returns the processing-cost multiplier for g. Unknown grades scale by 1.0.
func (g DifficultyGrade) Factor() float64 {
	if f, ok := difficultyFactors[g]; ok {
		return f
	}
	return 1.0
}

// Valid reports whether g is one of A-F.
func (g DifficultyGrade) Valid() bool {
	_, ok := difficultyFactors[g]
	return ok
}

// ParseDifficulty normalizes user input such as " b " into a grade.
func ParseDifficulty(raw string) (DifficultyGrade, error) {
	g := DifficultyGrade(strings.ToUpper(strings.TrimSpace(raw)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown difficulty grade %q", raw)
	}
	return g, nil
}
