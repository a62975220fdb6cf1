package domain

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_BothSides(t *testing.T) {
	pro := uuid.New()
	self := &Evaluation{Score: 6.0}
	prof := &Evaluation{Score: 8.0, EvaluatorID: &pro}

	cmp, err := Compare(self, prof)
	require.NoError(t, err)
	require.NotNil(t, cmp.Difference)
	assert.InDelta(t, 2.0, *cmp.Difference, 1e-9)
	assert.Same(t, self, cmp.Patient)
	assert.Same(t, prof, cmp.Professional)
}

func TestCompare_OnlySelf(t *testing.T) {
	cmp, err := Compare(&Evaluation{Score: 4}, nil)
	require.NoError(t, err)
	assert.Nil(t, cmp.Professional)
	assert.Nil(t, cmp.Difference)
}

func TestCompare_NeitherSide(t *testing.T) {
	_, err := Compare(nil, nil)
	assert.ErrorIs(t, err, ErrEvaluationNotFound)
}

func TestValidScore(t *testing.T) {
	assert.True(t, ValidScore(0))
	assert.True(t, ValidScore(-12.5))
	assert.False(t, ValidScore(math.NaN()))
	assert.False(t, ValidScore(math.Inf(1)))
}

func TestIdentity_CanRead(t *testing.T) {
	patient := Identity{UserID: uuid.New(), Role: RolePatient}
	other := uuid.New()

	assert.True(t, patient.CanRead(patient.UserID))
	assert.False(t, patient.CanRead(other))
	assert.True(t, Identity{UserID: uuid.New(), Role: RoleProfessional}.CanRead(other))
}
