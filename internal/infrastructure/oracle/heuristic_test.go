package oracle

import (
	"context"
	"strings"
	"testing"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
	"github.com/heartline/heartline/internal/domain/valueobject"
)

func heuristicReq(text string) *service.OracleRequest {
	return &service.OracleRequest{
		Persona:     entity.Persona{ID: "c1", Name: "Taylor", Description: "Warm and witty."},
		UserMessage: text,
	}
}

// === Scoring cues ===

func TestHeuristicScore_Cues(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"apology", "I'm so sorry about that", 4},
		{"politeness", "thank you so much", 6},
		{"invitation", "want to grab coffee?", 8},
		{"polite invitation accumulates", "please join me for dinner", 14},
		{"dismissive", "stop being so desperate", -25},
		{"insult", "that was a stupid idea", -40},
		{"flaky", "I'm busy tonight", -8},
		{"insult buries an apology", "sorry but you are an idiot", -36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := NewHeuristicTierWithSeed(1)
			res, err := tier.Score(context.Background(), heuristicReq(tt.text))
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if res.Delta != tt.want {
				t.Errorf("delta for %q: got %d, want %d", tt.text, res.Delta, tt.want)
			}
		})
	}
}

func TestHeuristicScore_NeutralDrift(t *testing.T) {
	tier := NewHeuristicTierWithSeed(42)
	for i := 0; i < 50; i++ {
		res, err := tier.Score(context.Background(), heuristicReq("the sky is blue"))
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if res.Delta != 2 && res.Delta != 0 && res.Delta != -2 {
			t.Fatalf("neutral drift out of set: got %d", res.Delta)
		}
	}
}

// === Replies ===

func TestHeuristicReply_Branches(t *testing.T) {
	tier := NewHeuristicTierWithSeed(1)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"greeting", "hey there", "Hey!"},
		{"coffee", "coffee sometime?", "when works for you"},
		{"meal", "dinner on friday?", "Where were you thinking"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := tier.Reply(context.Background(), heuristicReq(tt.text))
			if err != nil {
				t.Fatalf("Reply: %v", err)
			}
			if !strings.HasPrefix(reply, "Taylor:") {
				t.Errorf("reply missing persona prefix: %q", reply)
			}
			if !strings.Contains(reply, tt.want) {
				t.Errorf("reply %q missing %q", reply, tt.want)
			}
		})
	}
}

func TestHeuristicReply_ContinuityWithHistory(t *testing.T) {
	tier := NewHeuristicTierWithSeed(1)

	req := heuristicReq("interesting point")
	req.History = []service.ChatTurn{
		{Author: valueobject.AuthorMe, Text: "hi"},
		{Author: valueobject.AuthorThem, Text: "hey yourself"},
	}
	reply, err := tier.Reply(context.Background(), req)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(reply, "Haha, got it") {
		t.Errorf("expected continuity reply, got %q", reply)
	}

	fresh, err := tier.Reply(context.Background(), heuristicReq("interesting point"))
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if strings.Contains(fresh, "Haha") {
		t.Errorf("no continuity without persona history, got %q", fresh)
	}
}

func TestHeuristicReply_SarcasticTone(t *testing.T) {
	tier := NewHeuristicTierWithSeed(1)

	req := heuristicReq("hello")
	req.Persona.Description = "Sarcastic and direct."
	reply, err := tier.Reply(context.Background(), req)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(reply, "😏") {
		t.Errorf("expected sarcastic tone marker, got %q", reply)
	}
}

// === Quiz ===

func TestHeuristicQuiz(t *testing.T) {
	tier := NewHeuristicTierWithSeed(1)

	quiz, err := tier.Quiz(context.Background(), heuristicReq(""))
	if err != nil {
		t.Fatalf("Quiz: %v", err)
	}
	if quiz.Persona != "Taylor" {
		t.Errorf("persona: got %q", quiz.Persona)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(quiz.Questions))
	}
	q := quiz.Questions[0]
	if len(q.Options) != 4 {
		t.Errorf("expected 4 options, got %d", len(q.Options))
	}
	if q.CorrectIndex != 1 {
		t.Errorf("correctIndex: got %d, want 1", q.CorrectIndex)
	}
	if quiz.PassMinCorrect != 1 {
		t.Errorf("passMinCorrect: got %d, want 1", quiz.PassMinCorrect)
	}
	if !quiz.Passed(quiz.Grade([]int{1})) {
		t.Error("the supportive option must pass")
	}
}
