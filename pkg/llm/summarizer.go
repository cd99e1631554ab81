package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/invopop/jsonschema"
	"github.com/sashabaranov/go-openai"

	"github.com/umputun/enggist/pkg/config"
	"github.com/umputun/enggist/pkg/domain"
)

// limits enforced on model output
const (
	maxWhyItMatters = 300
	minBullets      = 3
	maxBullets      = 7
	maxTags         = 3
	minKeywords     = 2
	maxKeywords     = 7
)

const noContentPlaceholder = "No content available."

// Summarizer generates structured post summaries with an OpenAI-compatible LLM
type Summarizer struct {
	client *openai.Client
	config config.LLMConfig
	schema *jsonschema.Schema
}

// NewSummarizer creates a new LLM summarizer
func NewSummarizer(cfg config.LLMConfig) *Summarizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = 8000
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &Summarizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		schema: responseSchema(),
	}
}

// Configured reports whether an API key is set
func (s *Summarizer) Configured() bool {
	return s.config.APIKey != ""
}

// Summarize produces a summary of the post. Body is the post content, else excerpt, else a placeholder,
// truncated to the configured size. A failed call is retried once after the retry delay.
func (s *Summarizer) Summarize(ctx context.Context, post domain.Post) (domain.Summary, error) {
	if !s.Configured() {
		return domain.Summary{}, domain.ErrNoAPIKey
	}

	body := strings.TrimSpace(post.Content)
	if body == "" {
		body = strings.TrimSpace(post.Excerpt)
	}
	if body == "" {
		body = noContentPlaceholder
	}
	prompt := buildPrompt(post.Title, truncateBody(body, s.config.MaxInputChars))

	var resp summaryResponse
	attempt := 0
	err := repeater.NewFixed(2, s.config.RetryDelay).Do(ctx, func() error {
		attempt++
		r, err := s.complete(ctx, prompt)
		if err != nil {
			lgr.Printf("[WARN] summarize post %d, attempt %d failed: %v", post.ID, attempt, err)
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize post %d: %w", post.ID, err)
	}

	summary := repair(resp)
	summary.PostID = post.ID
	summary.Model = s.config.Model
	return summary, nil
}

// complete runs one chat completion and validates the structured response
func (s *Summarizer) complete(ctx context.Context, prompt string) (summaryResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: s.temperature(),
		MaxTokens:   s.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "post_summary",
				Schema: s.schema,
			},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return summaryResponse{}, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return summaryResponse{}, fmt.Errorf("no response from llm")
	}

	var res summaryResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(content, "```json"), "```"), "```")
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return summaryResponse{}, fmt.Errorf("failed to parse json: %w", err)
	}
	if err := validate(res); err != nil {
		return summaryResponse{}, err
	}
	return res, nil
}

// temperature returns the configured sampling temperature, 0.3 if unset.
// go-openai omits a zero temperature from the request, zero is sent as the smallest positive float.
func (s *Summarizer) temperature() float32 {
	if s.config.Temperature == nil {
		return 0.3
	}
	if *s.config.Temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(*s.config.Temperature)
}

// validate rejects responses that can't be repaired
func validate(r summaryResponse) error {
	if len(nonEmpty(r.Bullets)) < minBullets {
		return fmt.Errorf("expected at least %d bullets, got %d", minBullets, len(r.Bullets))
	}
	if strings.TrimSpace(r.WhyItMatters) == "" {
		return fmt.Errorf("empty whyItMatters")
	}
	if len(validTags(r.Tags)) == 0 {
		return fmt.Errorf("no valid tags in %v", r.Tags)
	}
	if len(nonEmpty(r.Keywords)) < minKeywords {
		return fmt.Errorf("expected at least %d keywords, got %d", minKeywords, len(r.Keywords))
	}
	return nil
}

// repair enforces hard output limits instead of rejecting oversized responses
func repair(r summaryResponse) domain.Summary {
	bullets := nonEmpty(r.Bullets)
	if len(bullets) > maxBullets {
		bullets = bullets[:maxBullets]
	}
	tags := validTags(r.Tags)
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	keywords := nonEmpty(r.Keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return domain.Summary{
		Bullets:      bullets,
		WhyItMatters: TruncateToLength(strings.TrimSpace(r.WhyItMatters), maxWhyItMatters),
		Tags:         tags,
		Keywords:     keywords,
	}
}

// validTags keeps known, unique tags in the given order
func validTags(raw []string) []domain.Tag {
	res := make([]domain.Tag, 0, len(raw))
	seen := map[domain.Tag]bool{}
	for _, s := range raw {
		t, err := domain.ParseTag(s)
		if err != nil || seen[t] {
			continue
		}
		seen[t] = true
		res = append(res, t)
	}
	return res
}

func nonEmpty(vals []string) []string {
	res := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
