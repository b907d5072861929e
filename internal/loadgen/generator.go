package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentcheck/internal/domain/model"
)

// Score bands of the generated population: mostly average, some strong,
// a few elite and a weak tail.
var bands = []struct {
	weight   int
	min, max float64
}{
	{weight: 5, min: 40, max: 70},
	{weight: 2, min: 70, max: 85},
	{weight: 1, min: 85, max: 99},
	{weight: 2, min: 5, max: 40},
}

var genders = []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther}

// Generate creates n submissions spread over athletes athletes. The same
// seed yields the same scores, ages and test types; ids are always fresh.
func Generate(n, athletes int, seed uint64, now time.Time) []model.Submission {
	if n < 1 {
		return nil
	}
	athletes = max(1, min(athletes, n))
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	pool := make([]model.Athlete, athletes)
	for i := range pool {
		pool[i] = model.Athlete{
			ID:     uuid.NewString(),
			Age:    10 + r.IntN(30),
			Gender: genders[r.IntN(len(genders))],
		}
	}

	subs := make([]model.Submission, n)
	for i := range subs {
		a := pool[i%athletes]
		id := uuid.NewString()
		// Older submissions first so history builds up in order.
		at := now.Add(-time.Duration(n-i) * time.Minute).UTC()
		subs[i] = model.Submission{
			Athlete: a,
			Record: model.AssessmentRecord{
				ID:          id,
				AthleteID:   a.ID,
				TestType:    model.TestTypes[r.IntN(len(model.TestTypes))],
				RawScore:    score(r),
				SubmittedAt: at,
			},
			Video: model.Video{
				ID:          "vid-" + id,
				DurationSec: 5 + float64(r.IntN(55)),
				FrameRate:   []float64{24, 30, 60}[r.IntN(3)],
				Width:       1280,
				Height:      720,
				RecordedAt:  at.Add(-time.Duration(r.IntN(3600)) * time.Second),
			},
		}
	}
	return subs
}

func score(r *rand.Rand) float64 {
	total := 0
	for _, b := range bands {
		total += b.weight
	}
	pick := r.IntN(total)
	for _, b := range bands {
		if pick < b.weight {
			v := b.min + r.Float64()*(b.max-b.min)
			return float64(int(v*10)) / 10
		}
		pick -= b.weight
	}
	return 50
}
