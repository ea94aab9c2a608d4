package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

// EndpointConfig holds the per-operation URLs of a self-hosted oracle
// service. Any URL may be empty; the corresponding operation then falls
// through the chain.
type EndpointConfig struct {
	ReplyURL string
	ScoreURL string
	QuizURL  string
	APIKey   string
	Timeout  time.Duration
}

// EndpointTier calls a remote JSON-over-HTTP oracle service. Requests carry
// the uniform persona/history/userMessage shape; the API key, when present,
// is sent as a Bearer token.
type EndpointTier struct {
	cfg    EndpointConfig
	client *http.Client
	logger *zap.Logger
}

// NewEndpointTier creates the remote endpoint tier.
func NewEndpointTier(cfg EndpointConfig, logger *zap.Logger) *EndpointTier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EndpointTier{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: logger.With(zap.String("component", "oracle-endpoint")),
	}
}

func (t *EndpointTier) Name() string { return "endpoint" }

// Available reports whether at least one operation URL is configured.
func (t *EndpointTier) Available() bool {
	return t.cfg.ReplyURL != "" || t.cfg.ScoreURL != "" || t.cfg.QuizURL != ""
}

// Reply implements Tier.
func (t *EndpointTier) Reply(ctx context.Context, req *service.OracleRequest) (string, error) {
	if t.cfg.ReplyURL == "" {
		return "", ErrNotConfigured
	}

	body, err := t.post(ctx, t.cfg.ReplyURL, req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Reply string `json:"reply"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode reply response: %w", err)
	}

	reply := strings.TrimSpace(resp.Reply)
	if reply == "" {
		reply = strings.TrimSpace(resp.Text)
	}
	if reply == "" {
		return "", fmt.Errorf("reply endpoint returned no text")
	}
	return reply, nil
}

// Score implements Tier.
func (t *EndpointTier) Score(ctx context.Context, req *service.OracleRequest) (*service.ScoreResult, error) {
	if t.cfg.ScoreURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := t.post(ctx, t.cfg.ScoreURL, req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Delta  *float64 `json:"delta"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	if resp.Delta == nil {
		return nil, fmt.Errorf("score endpoint returned no delta")
	}

	return &service.ScoreResult{
		Delta:  ClampDelta(*resp.Delta),
		Reason: resp.Reason,
	}, nil
}

// Quiz implements Tier.
func (t *EndpointTier) Quiz(ctx context.Context, req *service.OracleRequest) (*entity.Quiz, error) {
	if t.cfg.QuizURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := t.post(ctx, t.cfg.QuizURL, req)
	if err != nil {
		return nil, err
	}
	return ParseQuiz(body, req.Persona.Name)
}

// post sends the request payload and returns the raw response body on 2xx.
func (t *EndpointTier) post(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Warn("Oracle endpoint returned error status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
