package oracle

import (
	"math"
	"testing"
)

// === Delta clamping ===

func TestClampDelta(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want int
	}{
		{"zero", 0, 0},
		{"in range", 12, 12},
		{"negative in range", -30, -30},
		{"above cap", 75, 50},
		{"below floor", -99, -50},
		{"rounds half up", 2.5, 3},
		{"rounds negative", -2.6, -3},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 0},
		{"negative infinity", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDelta(tt.raw); got != tt.want {
				t.Errorf("ClampDelta(%v) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

// === JSON recovery ===

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"bare object", `{"delta": 5}`, `{"delta": 5}`, true},
		{"markdown fence", "```json\n{\"delta\": 5}\n```", `{"delta": 5}`, true},
		{"prose wrapped", `Sure! Here you go: {"delta": -3} hope that helps`, `{"delta": -3}`, true},
		{"nested braces", `noise {"a": {"b": 1}} tail`, `{"a": {"b": 1}}`, true},
		{"no object", "just words", "", false},
		{"reversed braces", "} nothing {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// === Quiz normalization ===

func TestParseQuiz_AppliesDefaults(t *testing.T) {
	payload := []byte(`{
		"questions": [
			{"text": "first?", "options": ["a", "b", "c"], "correctIndex": 1},
			{"text": "second?", "options": ["a", "b"], "correctIndex": 0}
		]
	}`)

	quiz, err := ParseQuiz(payload, "Taylor")
	if err != nil {
		t.Fatalf("ParseQuiz: %v", err)
	}
	if quiz.ID != "quiz-1" {
		t.Errorf("id default: got %q", quiz.ID)
	}
	if quiz.Persona != "Taylor" {
		t.Errorf("persona default: got %q", quiz.Persona)
	}
	if quiz.Questions[0].ID != "q1" || quiz.Questions[1].ID != "q2" {
		t.Errorf("positional question ids: got %q, %q", quiz.Questions[0].ID, quiz.Questions[1].ID)
	}
	if quiz.Questions[0].Type != "mcq" {
		t.Errorf("type default: got %q", quiz.Questions[0].Type)
	}
	if quiz.PassMinCorrect != 1 {
		t.Errorf("passMinCorrect default: got %d", quiz.PassMinCorrect)
	}
}

func TestParseQuiz_ClampsPassMinCorrect(t *testing.T) {
	payload := []byte(`{
		"passMinCorrect": 5,
		"questions": [
			{"text": "only one?", "options": ["a", "b"], "correctIndex": 0}
		]
	}`)

	quiz, err := ParseQuiz(payload, "Taylor")
	if err != nil {
		t.Fatalf("ParseQuiz: %v", err)
	}
	if quiz.PassMinCorrect != 1 {
		t.Errorf("passMinCorrect clamped to question count: got %d", quiz.PassMinCorrect)
	}
}

func TestParseQuiz_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `hello`},
		{"no questions", `{"questions": []}`},
		{"missing text", `{"questions": [{"options": ["a", "b"], "correctIndex": 0}]}`},
		{"single option", `{"questions": [{"text": "x", "options": ["a"], "correctIndex": 0}]}`},
		{"correctIndex out of range", `{"questions": [{"text": "x", "options": ["a", "b"], "correctIndex": 2}]}`},
		{"negative correctIndex", `{"questions": [{"text": "x", "options": ["a", "b"], "correctIndex": -1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuiz([]byte(tt.payload), "Taylor"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
