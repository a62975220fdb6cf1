package postgres

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

func TestDecodeStoredAnswers(t *testing.T) {
	id := uuid.New()
	valid := `{"q1":3,"q2":"si"}`
	corrupt := "{not json"

	t.Run("nil column is null", func(t *testing.T) {
		assert.True(t, decodeStoredAnswers(zerolog.Nop(), "evaluations", id, nil).IsNull())
	})

	t.Run("valid document", func(t *testing.T) {
		a := decodeStoredAnswers(zerolog.Nop(), "evaluations", id, &valid)
		require.Equal(t, domain.AnswerObject, a.Kind())
		q1, ok := a.Field("q1")
		require.True(t, ok)
		n, _ := q1.Number()
		assert.Equal(t, 3.0, n)
	})

	t.Run("corrupt document degrades to null and warns", func(t *testing.T) {
		var buf bytes.Buffer
		a := decodeStoredAnswers(zerolog.New(&buf), "evaluations", id, &corrupt)
		assert.True(t, a.IsNull())
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), id.String())
	})
}

func TestEncodeAnswers_NullIsNil(t *testing.T) {
	s, err := encodeAnswers(domain.NullAnswer())
	require.NoError(t, err)
	assert.Nil(t, s)
}
