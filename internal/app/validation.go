package app

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"quiz-room-service/internal/domain"
)

const (
	maxNameLength   = 20
	maxAnswerLength = 140
)

// validateName trims and collapses whitespace, then enforces length and
// printable characters.
func validateName(name string) (string, error) {
	normalized := normalizeText(name)
	if normalized == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidName)
	}
	if utf8.RuneCountInString(normalized) > maxNameLength {
		return "", fmt.Errorf("%w: name must be %d characters or fewer", domain.ErrInvalidName, maxNameLength)
	}
	if !isPrintable(normalized) {
		return "", fmt.Errorf("%w: name contains unsupported characters", domain.ErrInvalidName)
	}
	return normalized, nil
}

func validateAnswer(answer domain.Answer) (domain.Answer, error) {
	normalized := domain.NormalizeAnswer(answer.String())
	if normalized == "" {
		return "", fmt.Errorf("%w: answer is required", domain.ErrInvalidAnswer)
	}
	if utf8.RuneCountInString(normalized.String()) > maxAnswerLength {
		return "", fmt.Errorf("%w: answer must be %d characters or fewer", domain.ErrInvalidAnswer, maxAnswerLength)
	}
	return normalized, nil
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isPrintable(text string) bool {
	for _, r := range text {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
