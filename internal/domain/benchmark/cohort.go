package benchmark

import (
	"math"
	"strings"

	"github.com/okian/talentcheck/internal/domain/model"
)

// AgeGroup buckets athletes by age for cohort lookup.
type AgeGroup string

// Age groups.
const (
	AgeU14     AgeGroup = "u14"
	AgeU17     AgeGroup = "u17"
	AgeU20     AgeGroup = "u20"
	AgeSenior  AgeGroup = "senior"
	AgeMasters AgeGroup = "masters"
)

// AgeGroups lists the age groups youngest first.
var AgeGroups = []AgeGroup{AgeU14, AgeU17, AgeU20, AgeSenior, AgeMasters}

// AgeGroupFor returns the age group an age falls into.
func AgeGroupFor(age int) AgeGroup {
	switch {
	case age < 14:
		return AgeU14
	case age < 17:
		return AgeU17
	case age < 20:
		return AgeU20
	case age < 35:
		return AgeSenior
	default:
		return AgeMasters
	}
}

// CohortKey identifies a reference curve.
type CohortKey struct {
	AgeGroup AgeGroup       `json:"age_group"`
	Gender   model.Gender   `json:"gender"`
	TestType model.TestType `json:"test_type"`
	Sport    string         `json:"sport,omitempty"`
}

// CohortFor derives the cohort of an athlete for a test type.
func CohortFor(a model.Athlete, t model.TestType) CohortKey {
	g := a.Gender
	if g != model.GenderMale && g != model.GenderFemale {
		g = model.GenderOther
	}
	return CohortKey{
		AgeGroup: AgeGroupFor(a.Age),
		Gender:   g,
		TestType: t,
		Sport:    normalizeSport(a.Sport),
	}
}

func normalizeSport(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// referenceScores is the senior male curve of a test with no difficulty
// offset; every other cohort is derived from it.
var referenceScores = [7]float64{40, 55, 65, 75, 83, 88, 95}

var testOffset = map[model.TestType]float64{
	model.TestVerticalJump: 0,
	model.TestSitUps:       3,
	model.TestShuttleRun:   -2,
	model.TestEnduranceRun: -4,
	model.TestPushUps:      2,
	model.TestSprint30m:    -1,
	model.TestBroadJump:    0,
	model.TestFlexibility:  4,
}

var ageFactor = map[AgeGroup]float64{
	AgeU14:     0.82,
	AgeU17:     0.92,
	AgeU20:     0.97,
	AgeSenior:  1.0,
	AgeMasters: 0.88,
}

// femaleOffset is applied to female cohorts; the "other" cohort gets half.
var femaleOffset = map[model.TestType]float64{
	model.TestVerticalJump: -4,
	model.TestSitUps:       -1,
	model.TestShuttleRun:   -3,
	model.TestEnduranceRun: -3,
	model.TestPushUps:      -6,
	model.TestSprint30m:    -3,
	model.TestBroadJump:    -4,
	model.TestFlexibility:  4,
}

const sportBonus = 3.0

// sportTests lists the tests a sport trains for; athletes of that sport are
// compared against a stronger curve on those tests.
var sportTests = map[string][]model.TestType{
	"athletics":  {model.TestSprint30m, model.TestShuttleRun, model.TestEnduranceRun, model.TestBroadJump},
	"basketball": {model.TestVerticalJump, model.TestShuttleRun},
	"football":   {model.TestSprint30m, model.TestShuttleRun, model.TestEnduranceRun},
	"gymnastics": {model.TestFlexibility, model.TestPushUps, model.TestSitUps},
	"volleyball": {model.TestVerticalJump, model.TestBroadJump},
	"wrestling":  {model.TestPushUps, model.TestSitUps},
	"swimming":   {model.TestEnduranceRun, model.TestFlexibility},
	"hockey":     {model.TestSprint30m, model.TestShuttleRun},
}

func sportTrains(sport string, t model.TestType) bool {
	for _, st := range sportTests[sport] {
		if st == t {
			return true
		}
	}
	return false
}

// parametricScores derives the anchor scores of a cohort. The result is
// clamped to [1,100] and forced non-decreasing.
func parametricScores(key CohortKey) [7]float64 {
	factor, ok := ageFactor[key.AgeGroup]
	if !ok {
		factor = 1
	}
	offset := testOffset[key.TestType]
	switch key.Gender {
	case model.GenderFemale:
		offset += femaleOffset[key.TestType]
	case model.GenderOther:
		offset += femaleOffset[key.TestType] / 2
	}
	if key.Sport != "" && sportTrains(key.Sport, key.TestType) {
		offset += sportBonus
	}

	var out [7]float64
	prev := 1.0
	for i, ref := range referenceScores {
		v := math.Round((ref*factor+offset)*10) / 10
		v = math.Min(100, math.Max(prev, v))
		out[i] = v
		prev = v
	}
	return out
}

// buildTable generates every curve known at startup: each age group, gender
// and test type, plus the sport-specific variants.
func buildTable() map[CohortKey]Curve {
	genders := []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther}
	table := make(map[CohortKey]Curve, len(AgeGroups)*len(genders)*len(model.TestTypes)*2)
	add := func(key CohortKey) {
		// parametric scores are positive and non-decreasing by construction
		c, err := NewCurve(key, parametricScores(key))
		if err == nil {
			table[key] = c
		}
	}
	for _, ag := range AgeGroups {
		for _, g := range genders {
			for _, tt := range model.TestTypes {
				add(CohortKey{AgeGroup: ag, Gender: g, TestType: tt})
			}
			for sport, tests := range sportTests {
				for _, tt := range tests {
					add(CohortKey{AgeGroup: ag, Gender: g, TestType: tt, Sport: sport})
				}
			}
		}
	}
	return table
}
