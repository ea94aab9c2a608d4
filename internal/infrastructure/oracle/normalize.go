package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/heartline/heartline/internal/domain/entity"
)

// ClampDelta normalizes a raw model-reported score into a finite integer in
// [-50, 50]. NaN and infinities map to 0; fractional values are rounded.
func ClampDelta(raw float64) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	d := int(math.Round(raw))
	if d > 50 {
		return 50
	}
	if d < -50 {
		return -50
	}
	return d
}

// ExtractJSON pulls the first {...} substring out of text. Generative models
// often wrap JSON in prose or markdown fences; this recovers the payload.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// rawQuiz is the loosely-typed quiz shape accepted from remote tiers before
// normalization.
type rawQuiz struct {
	QuizID         string        `json:"quizId"`
	Persona        string        `json:"persona"`
	Questions      []rawQuestion `json:"questions"`
	PassMinCorrect *int          `json:"passMinCorrect"`
}

type rawQuestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Rationale    string   `json:"rationale"`
}

// ParseQuiz decodes and normalizes a quiz payload. Missing identifiers get
// positional defaults, the question type defaults to "mcq", and
// passMinCorrect defaults to 1 clamped to the question count.
func ParseQuiz(data []byte, personaName string) (*entity.Quiz, error) {
	var raw rawQuiz
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	if len(raw.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions")
	}

	quiz := &entity.Quiz{
		ID:      raw.QuizID,
		Persona: raw.Persona,
	}
	if quiz.ID == "" {
		quiz.ID = "quiz-1"
	}
	if quiz.Persona == "" {
		quiz.Persona = personaName
	}

	for i, q := range raw.Questions {
		question := entity.QuizQuestion{
			ID:           q.ID,
			Type:         q.Type,
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Rationale:    q.Rationale,
		}
		if question.ID == "" {
			question.ID = fmt.Sprintf("q%d", i+1)
		}
		if question.Type == "" {
			question.Type = "mcq"
		}
		if question.Text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if len(question.Options) < 2 {
			return nil, fmt.Errorf("question %d needs at least two options", i+1)
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return nil, fmt.Errorf("question %d correctIndex out of range", i+1)
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	pass := 1
	if raw.PassMinCorrect != nil {
		pass = *raw.PassMinCorrect
	}
	if pass < 1 {
		pass = 1
	}
	if pass > len(quiz.Questions) {
		pass = len(quiz.Questions)
	}
	quiz.PassMinCorrect = pass

	return quiz, nil
}
