package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompetencyAssessment is a professional's self-reported competency test:
// four sub-scale averages, an overall score and the raw answers.
type CompetencyAssessment struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	F1Average  float64   `json:"f1_average"`
	F2Average  float64   `json:"f2_average"`
	F3Average  float64   `json:"f3_average"`
	F4Average  float64   `json:"f4_average"`
	TotalScore float64   `json:"total_score"`
	Answers    Answer    `json:"answers"`
	AppliedAt  time.Time `json:"applied_at"`
}

func (c *CompetencyAssessment) Validate() error {
	for _, v := range []float64{c.F1Average, c.F2Average, c.F3Average, c.F4Average, c.TotalScore} {
		if !ValidScore(v) {
			return InvalidInput("competency scores must be finite numbers")
		}
	}
	return c.Answers.RequireObject(false)
}
