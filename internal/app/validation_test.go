package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-room-service/internal/domain"
)

func TestValidateName(t *testing.T) {
	got, err := validateName("  Ada   Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got)

	got, err = validateName("Zoë")
	require.NoError(t, err)
	assert.Equal(t, "Zoë", got)

	for _, bad := range []string{"", "   ", strings.Repeat("x", maxNameLength+1), "bell\x07", "bad\xff"} {
		_, err := validateName(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidName, "%q", bad)
	}
}

func TestValidateAnswer(t *testing.T) {
	got, err := validateAnswer(" 2.0 ")
	require.NoError(t, err)
	assert.Equal(t, domain.Answer("2.0"), got)

	_, err = validateAnswer("")
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, err = validateAnswer(domain.Answer(strings.Repeat("a", maxAnswerLength+1)))
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}
