// ABOUTME: LLM provider clients for relevance scoring and digest generation
// ABOUTME: Anthropic, OpenAI-compatible and Ollama backends behind one interface

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	coreerrors "newsfetch-api/core/errors"
	"newsfetch-api/core/interfaces"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

const (
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	defaultOpenAIURL    = "https://api.openai.com/v1/chat/completions"
	defaultOllamaURL    = "http://localhost:11434"
)

// New creates an LLM client for the configured provider. An empty provider
// returns a disabled client so callers can rely on their fallback paths
// without nil checks.
func New(cfg Config) (interfaces.LLM, error) {
	if cfg.Provider == "" {
		return Disabled{}, nil
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	httpc := &http.Client{Timeout: 30 * time.Second}

	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return Disabled{}, nil
		}
		model := cfg.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		url := cfg.BaseURL
		if url == "" {
			url = defaultAnthropicURL
		}
		p := &anthropicProvider{apiKey: cfg.APIKey, model: model, url: url, cfg: cfg, client: httpc}
		return &client{name: "anthropic", call: p.call}, nil
	case "openai":
		if cfg.APIKey == "" {
			return Disabled{}, nil
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		url := cfg.BaseURL
		if url == "" {
			url = defaultOpenAIURL
		}
		p := &openaiProvider{apiKey: cfg.APIKey, model: model, url: url, cfg: cfg, client: httpc}
		return &client{name: "openai", call: p.call}, nil
	case "ollama", "local":
		base := cfg.BaseURL
		if base == "" {
			base = defaultOllamaURL
		}
		// Local generation is slower than hosted APIs.
		p := &ollamaProvider{model: cfg.Model, baseURL: base, cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}}
		return &client{name: "ollama", call: p.call}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: anthropic, openai, ollama)", cfg.Provider)
	}
}

// Disabled is the no-op client used when no provider is configured.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) ScoreRelevance(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
	return nil, &coreerrors.LLMError{Provider: "none", Op: "score", Err: fmt.Errorf("not configured")}
}

func (Disabled) Summarize(ctx context.Context, topic string, items []interfaces.SummaryInput, maxBullets int) ([]string, error) {
	return nil, &coreerrors.LLMError{Provider: "none", Op: "summarize", Err: fmt.Errorf("not configured")}
}

const scorePrompt = `You are a news curator scoring articles by relevance to the topic "%s".

Articles to score:
%s

Score each article from 0 to 10 for relevance to "%s", considering:
1. Direct relevance to the topic
2. Recency and newsworthiness
3. Source credibility
4. Depth of coverage

Respond with ONLY a JSON object mapping article index to score, like: {"0": 8.5, "1": 3, "2": 9}`

const digestPrompt = `You are a news editor writing a daily digest about "%s". Based on the following articles, write up to %d key bullet points covering the most important stories. Include significant numbers, dates and developments. Write in a professional news style.

Articles:
%s

Respond with one bullet point per line. No numbering or bullet characters. Keep each point under 200 characters.`

// client adapts a provider's raw completion call to the LLM contract.
type client struct {
	name string
	call func(ctx context.Context, prompt string) (string, error)
}

func (c *client) Available() bool { return true }

func (c *client) ScoreRelevance(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
	prompt := fmt.Sprintf(scorePrompt, topic, formatCandidates(candidates), topic)
	text, err := c.call(ctx, prompt)
	if err != nil {
		return nil, &coreerrors.LLMError{Provider: c.name, Op: "score", Err: err}
	}
	scores := parseScores(text)
	if len(scores) == 0 {
		return nil, &coreerrors.LLMError{Provider: c.name, Op: "score", Err: fmt.Errorf("no scores in response")}
	}
	return scores, nil
}

func (c *client) Summarize(ctx context.Context, topic string, items []interfaces.SummaryInput, maxBullets int) ([]string, error) {
	prompt := fmt.Sprintf(digestPrompt, topic, maxBullets, formatSummaryItems(items))
	text, err := c.call(ctx, prompt)
	if err != nil {
		return nil, &coreerrors.LLMError{Provider: c.name, Op: "summarize", Err: err}
	}
	bullets := parseBullets(text, maxBullets)
	if len(bullets) == 0 {
		return nil, &coreerrors.LLMError{Provider: c.name, Op: "summarize", Err: fmt.Errorf("no bullets in response")}
	}
	return bullets, nil
}

func formatCandidates(candidates []interfaces.RankCandidate) string {
	var sb strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&sb, "Index %d: %s\n", c.Index, c.Title)
		fmt.Fprintf(&sb, "Source: %s\n", c.Source)
		if c.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", clip(c.Summary, 200))
		}
		if c.Published != "" {
			fmt.Fprintf(&sb, "Published: %s\n", c.Published)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatSummaryItems(items []interfaces.SummaryInput) string {
	var sb strings.Builder
	for i, item := range items {
		// Bounded to keep the prompt inside token limits.
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&sb, "   Source: %s\n", item.Source)
		if item.Excerpt != "" {
			fmt.Fprintf(&sb, "   Summary: %s\n", clip(item.Excerpt, 300))
		}
		if item.Published != "" {
			fmt.Fprintf(&sb, "   Published: %s\n", item.Published)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseScores extracts the index-to-score JSON object from a model response,
// tolerating surrounding prose. Non-numeric keys and out-of-range scores are
// dropped.
func parseScores(text string) map[int]float64 {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	scores := make(map[int]float64, len(raw))
	for key, score := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || idx < 0 {
			continue
		}
		if score < 0 || score > 10 {
			continue
		}
		scores[idx] = score
	}
	return scores
}

// parseBullets splits a response into lines, stripping bullet characters and
// numbering the model may add despite instructions.
func parseBullets(text string, maxBullets int) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "•-*")
		line = strings.TrimSpace(line)
		if len(line) > 2 && line[0] >= '0' && line[0] <= '9' {
			for i, c := range line {
				if c == '.' || c == ')' {
					line = strings.TrimSpace(line[i+1:])
					break
				}
				if c < '0' || c > '9' {
					break
				}
			}
		}
		if line == "" {
			continue
		}
		bullets = append(bullets, line)
		if maxBullets > 0 && len(bullets) >= maxBullets {
			break
		}
	}
	return bullets
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// --- Anthropic provider ---

type anthropicProvider struct {
	apiKey string
	model  string
	url    string
	cfg    Config
	client *http.Client
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *anthropicProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(anthropicRequest{
		Model:       p.model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("anthropic API %d: %s", resp.StatusCode, string(b))
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", err
	}
	if len(ar.Content) == 0 {
		return "", fmt.Errorf("empty anthropic response")
	}
	return ar.Content[0].Text, nil
}

// --- OpenAI-compatible provider ---

type openaiProvider struct {
	apiKey string
	model  string
	url    string
	cfg    Config
	client *http.Client
}

type openaiRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *openaiProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:       p.model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}

// --- Ollama provider ---

type ollamaProvider struct {
	model   string
	baseURL string
	cfg     Config
	client  *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (p *ollamaProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: p.cfg.Temperature,
			NumPredict:  p.cfg.MaxTokens,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama API %d: %s", resp.StatusCode, string(b))
	}

	var lr ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}
	if lr.Response == "" {
		return "", fmt.Errorf("empty ollama response")
	}
	return lr.Response, nil
}
