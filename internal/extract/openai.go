package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rapid-dispatch/backend/internal/models"
)

// OpenAIExtractor calls an OpenAI-compatible chat completions endpoint
// with the fixed extraction prompt.
type OpenAIExtractor struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

var (
	cacheMu    sync.Mutex
	cacheStore = map[string]cacheEntry{}
	cacheTTL   = 60 * time.Second
)

type cacheEntry struct {
	value models.IncidentExtraction
	exp   time.Time
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

func (OpenAIExtractor) Name() string { return "llm" }

func (e OpenAIExtractor) Extract(ctx context.Context, transcript string) (models.IncidentExtraction, error) {
	if strings.TrimSpace(e.BaseURL) == "" {
		return models.IncidentExtraction{}, fmt.Errorf("OPENAI_BASE_URL is not set")
	}
	if strings.TrimSpace(e.APIKey) == "" {
		return models.IncidentExtraction{}, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if strings.TrimSpace(e.Model) == "" {
		return models.IncidentExtraction{}, fmt.Errorf("OPENAI_MODEL is not set")
	}

	prompt := BuildPrompt(transcript)
	if v, ok := cacheGet(prompt); ok {
		return v, nil
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
		Messages    []msg   `json:"messages"`
	}{
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(e.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return models.IncidentExtraction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.IncidentExtraction{}, fmt.Errorf("extraction request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return models.IncidentExtraction{}, fmt.Errorf("extraction request timed out")
		}
		return models.IncidentExtraction{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			return models.IncidentExtraction{}, RateLimitError{}
		}
		return models.IncidentExtraction{}, fmt.Errorf("extraction http error: %s", resp.Status)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.IncidentExtraction{}, err
	}
	if len(res.Choices) == 0 {
		return models.IncidentExtraction{}, fmt.Errorf("empty extraction response")
	}

	extraction, err := parseExtractionJSON(res.Choices[0].Message.Content)
	if err != nil {
		return models.IncidentExtraction{}, err
	}
	cacheSet(prompt, extraction)
	return extraction, nil
}

// parseExtractionJSON tolerates prose around the JSON object by taking
// the outermost brace-delimited substring.
func parseExtractionJSON(content string) (models.IncidentExtraction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return models.IncidentExtraction{}, fmt.Errorf("no JSON object in extraction response")
	}
	var out models.IncidentExtraction
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return models.IncidentExtraction{}, fmt.Errorf("malformed extraction JSON: %w", err)
	}
	return out, nil
}

func cacheGet(key string) (models.IncidentExtraction, bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if e, ok := cacheStore[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(cacheStore, key)
	}
	return models.IncidentExtraction{}, false
}

func cacheSet(key string, value models.IncidentExtraction) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheStore[key] = cacheEntry{value: value, exp: time.Now().Add(cacheTTL)}
}
