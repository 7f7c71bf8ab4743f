package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kantong/internal/config"
)

var ErrLLMUnavailable = errors.New("llm unavailable")

const maxResponseBytes = 256 * 1024

// GeminiDecider asks a Gemini model through the generateContent REST call.
// One attempt per message, bounded by the configured timeout.
type GeminiDecider struct {
	endpoint     string
	model        string
	apiKey       string
	contextTurns int
	client       *http.Client
}

func NewGeminiDecider(cfg config.LLMConfig, contextTurns int) (*GeminiDecider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrLLMUnavailable)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is empty", ErrLLMUnavailable)
	}
	return &GeminiDecider{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		contextTurns: contextTurns,
		client:       &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GeminiDecider) url() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

func (g *GeminiDecider) Decide(ctx context.Context, req Request) (Decision, error) {
	prompt, err := BuildPrompt(req, g.contextTurns)
	if err != nil {
		return Decision{}, fmt.Errorf("build prompt: %w", err)
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return Decision{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url(), bytes.NewReader(body))
	if err != nil {
		return Decision{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		// the request URL carries the key; never surface it
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Decision{}, fmt.Errorf("%w: read response: %v", ErrLLMUnavailable, err)
	}
	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Decision{}, fmt.Errorf("%w: status %d: decode response: %v", ErrLLMUnavailable, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return Decision{}, fmt.Errorf("%w: status %d: %s", ErrLLMUnavailable, resp.StatusCode, msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Decision{}, fmt.Errorf("%w: empty response", ErrLLMUnavailable)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	d, err := DecodeDecision(text.String())
	if err != nil {
		return Decision{}, err
	}
	log.Printf("[decision] gemini %s -> %s (%s)", g.model, d.Action, time.Since(start).Round(time.Millisecond))
	return d, nil
}
