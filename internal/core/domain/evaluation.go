package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Evaluation is an immutable questionnaire submission about UserID.
// EvaluatorID is nil for a patient's self-assessment and set to the
// professional's id otherwise; TestType only names the instrument.
type Evaluation struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	EvaluatorID *uuid.UUID `json:"evaluator_id"`
	TestType    string     `json:"test_type"`
	Score       float64    `json:"score"`
	Answers     Answer     `json:"answers"`
	Notes       *string    `json:"notes"`
	AppliedAt   time.Time  `json:"applied_at"`
}

// IsSelfAssessment reports whether the patient rated themselves.
func (e *Evaluation) IsSelfAssessment() bool {
	return e.EvaluatorID == nil
}

// ValidScore rejects NaN and infinities. No instrument scale is enforced.
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0)
}

// Comparison pairs the latest self-assessment with the latest professional
// assessment of the same patient.
type Comparison struct {
	Patient      *Evaluation `json:"patient"`
	Professional *Evaluation `json:"professional"`
	Difference   *float64    `json:"difference"`
}

// Compare builds a Comparison. Difference is professional minus patient and
// is nil when either side is missing. It fails only when both are missing.
func Compare(self, professional *Evaluation) (*Comparison, error) {
	if self == nil && professional == nil {
		return nil, ErrEvaluationNotFound
	}
	cmp := &Comparison{Patient: self, Professional: professional}
	if self != nil && professional != nil {
		d := professional.Score - self.Score
		cmp.Difference = &d
	}
	return cmp, nil
}
