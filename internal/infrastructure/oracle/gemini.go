package oracle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

// GeminiConfig configures the generative-model tier.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiTier implements the three oracle operations against the Google
// Gemini generateContent API.
type GeminiTier struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGeminiTier creates the Gemini tier.
func NewGeminiTier(cfg GeminiConfig, logger *zap.Logger) *GeminiTier {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &GeminiTier{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Transport: transport},
		logger:  logger.With(zap.String("component", "oracle-gemini"), zap.String("model", model)),
	}
}

func (t *GeminiTier) Name() string { return "gemini" }

func (t *GeminiTier) Available() bool { return t.apiKey != "" }

// Reply implements Tier.
func (t *GeminiTier) Reply(ctx context.Context, req *service.OracleRequest) (string, error) {
	instruction := fmt.Sprintf(
		"You are %s, texting in a chat app. %s Reply to the last message in one or two short, casual sentences. Output only the message text.",
		req.Persona.Name, req.Persona.System,
	)

	text, err := t.generate(ctx, instruction, req.History, req.UserMessage)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model returned empty reply")
	}
	return text, nil
}

// Score implements Tier.
func (t *GeminiTier) Score(ctx context.Context, req *service.OracleRequest) (*service.ScoreResult, error) {
	instruction := fmt.Sprintf(
		"You are judging how %s would react to the user's last text message. %s Rate the message's effect on %s's interest as an integer delta between -50 and 50. Respond with JSON only: {\"delta\": <int>, \"reason\": \"<short reason>\"}.",
		req.Persona.Name, req.Persona.System, req.Persona.Name,
	)

	text, err := t.generate(ctx, instruction, req.History, req.UserMessage)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Delta  *float64 `json:"delta"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Delta == nil {
		// Models often wrap JSON in prose; retry on the first brace span.
		raw, ok := ExtractJSON(text)
		if !ok {
			return nil, fmt.Errorf("score response is not JSON: %q", truncate(text, 120))
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("decode score JSON: %w", err)
		}
		if parsed.Delta == nil {
			return nil, fmt.Errorf("score JSON has no delta")
		}
	}

	return &service.ScoreResult{
		Delta:  ClampDelta(*parsed.Delta),
		Reason: parsed.Reason,
	}, nil
}

// Quiz implements Tier.
func (t *GeminiTier) Quiz(ctx context.Context, req *service.OracleRequest) (*entity.Quiz, error) {
	instruction := fmt.Sprintf(
		"Create a short comprehension quiz about the conversation with %s so far. %s Respond with JSON only, shaped as {\"quizId\": \"...\", \"persona\": \"%s\", \"questions\": [{\"id\": \"q1\", \"type\": \"mcq\", \"text\": \"...\", \"options\": [\"...\", \"...\"], \"correctIndex\": 0, \"rationale\": \"...\"}], \"passMinCorrect\": 1}. Two or three multiple-choice questions grounded in things actually said.",
		req.Persona.Name, req.Persona.System, req.Persona.Name,
	)

	text, err := t.generate(ctx, instruction, req.History, "")
	if err != nil {
		return nil, err
	}

	quiz, err := ParseQuiz([]byte(text), req.Persona.Name)
	if err != nil {
		raw, ok := ExtractJSON(text)
		if !ok {
			return nil, fmt.Errorf("quiz response is not JSON: %q", truncate(text, 120))
		}
		quiz, err = ParseQuiz([]byte(raw), req.Persona.Name)
		if err != nil {
			return nil, err
		}
	}
	return quiz, nil
}

// --- Internal ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate calls generateContent with the conversation mapped to Gemini
// contents. The player's lines become user turns, the persona's become model
// turns, and userMessage is appended as the final user turn when present.
func (t *GeminiTier) generate(ctx context.Context, instruction string, history []service.ChatTurn, userMessage string) (string, error) {
	apiReq := &geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: instruction}},
		},
	}

	for _, turn := range history {
		role := "model"
		if turn.Author.IsMe() {
			role = "user"
		}
		apiReq.Contents = append(apiReq.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}
	if userMessage != "" {
		apiReq.Contents = append(apiReq.Contents, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: userMessage}},
		})
	}
	if len(apiReq.Contents) == 0 {
		// generateContent rejects an empty contents array.
		apiReq.Contents = append(apiReq.Contents, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: "Hi!"}},
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", t.baseURL, t.model, t.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parse Gemini response: %w", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty Gemini response: no candidates")
	}

	var out strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}
