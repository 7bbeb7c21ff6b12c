package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"quiz-room-service/internal/domain"
)

type quizFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadQuizFile reads a YAML document of the form `quizzes: [...]` keyed by quiz id.
func LoadQuizFile(path string) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuizzes(data)
}

func ParseQuizzes(data []byte) (map[string]domain.Quiz, error) {
	var file quizFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse quizzes: %w", err)
	}
	quizzes := make(map[string]domain.Quiz, len(file.Quizzes))
	for i, quiz := range file.Quizzes {
		if quiz.ID == "" {
			return nil, fmt.Errorf("quiz #%d has no id", i+1)
		}
		if _, dup := quizzes[quiz.ID]; dup {
			return nil, fmt.Errorf("duplicate quiz id %q", quiz.ID)
		}
		quizzes[quiz.ID] = quiz
	}
	return quizzes, nil
}
