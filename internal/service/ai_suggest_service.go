package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultSuggestModel       = "gpt-4o-mini"
	defaultSuggestMaxTokens   = 512
	defaultSuggestTemperature = 0.2
	defaultSlugMaxTokens      = 48
	maxSuggestContentRunes    = 4000
)

const defaultSuggestSystemPrompt = "You are a content analysis assistant for a personal blog. " +
	"Respond with a single JSON object and nothing else: no prose, no markdown fences."

// SuggestInput 描述请求内容建议所需的上下文。
type SuggestInput struct {
	Title      string
	Content    string
	Categories []string
}

// SuggestResult 是模型针对一篇文章给出的元数据建议。
type SuggestResult struct {
	Summary    string   `json:"summary"`
	Tags       []string `json:"suggestedTags"`
	Category   string   `json:"suggestedCategory"`
	Confidence float64  `json:"confidence"`
}

// Suggester 定义内容建议能力，便于在业务层注入不同实现。
type Suggester interface {
	Suggest(ctx context.Context, input SuggestInput) (SuggestResult, error)
}

// AISuggestService 基于大模型接口生成标签、分类与摘要建议。
type AISuggestService struct {
	client *aiChatClient
}

// NewAISuggestService 构造默认的 AISuggestService。
func NewAISuggestService(settings AISettings) *AISuggestService {
	return &AISuggestService{
		client: newAIChatClient(settings, defaultSuggestModel),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AISuggestService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetBaseURL 覆盖默认的 API 地址。
func (s *AISuggestService) SetBaseURL(base string) {
	s.client.SetBaseURL(base)
}

// Suggest 调用模型分析文章内容，返回摘要、标签与分类建议。
// 未配置 API Key 时返回 ErrAIAPIKeyMissing，由调用方决定是否降级。
func (s *AISuggestService) Suggest(ctx context.Context, input SuggestInput) (SuggestResult, error) {
	userPrompt := buildSuggestPrompt(input)
	logAIExchange("SUGGEST", "prompt", userPrompt)

	resp, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: defaultSuggestSystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    defaultSuggestMaxTokens,
		Temperature:  defaultSuggestTemperature,
	})
	if err != nil {
		return SuggestResult{}, err
	}
	logAIExchange("SUGGEST", "response", resp.Content)

	var result SuggestResult
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Content)), &result); err != nil {
		return SuggestResult{}, fmt.Errorf("解析建议结果失败: %w", err)
	}

	result.Summary = strings.TrimSpace(result.Summary)
	result.Category = strings.TrimSpace(result.Category)
	tags := make([]string, 0, len(result.Tags))
	for _, tag := range result.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	result.Tags = tags

	return result, nil
}

// GenerateSlug 请求模型将标题翻译为 ASCII slug。模型输出只作参考，
// 最终仍经过本地 Slugify 规整，保证结果始终是合法的 URL 片段。
func (s *AISuggestService) GenerateSlug(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil
	}

	userPrompt := fmt.Sprintf(
		"Translate the following blog post title into a short English URL slug "+
			"(lowercase ASCII words joined by hyphens, at most 6 words). "+
			"Respond with the slug only.\n\nTitle: %s", title)
	logAIExchange("SLUG", "prompt", userPrompt)

	resp, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: "You generate URL slugs. Respond with the slug only.",
		UserPrompt:   userPrompt,
		MaxTokens:    defaultSlugMaxTokens,
		Temperature:  0,
	})
	if err != nil {
		return "", err
	}
	logAIExchange("SLUG", "response", resp.Content)

	return Slugify(resp.Content), nil
}

func buildSuggestPrompt(input SuggestInput) string {
	content := truncateRunes(strings.TrimSpace(input.Content), maxSuggestContentRunes)

	var builder strings.Builder
	builder.WriteString("Analyze the blog post below and respond with a JSON object with keys ")
	builder.WriteString(`"summary" (50-100 words), "suggestedTags" (3-5 short strings), `)
	builder.WriteString(`"suggestedCategory" (one name from the available categories) and `)
	builder.WriteString(`"confidence" (0..1 for the category choice).`)
	builder.WriteString("\n\nTitle: ")
	builder.WriteString(strings.TrimSpace(input.Title))
	builder.WriteString("\n\nContent:\n")
	builder.WriteString(content)
	if len(input.Categories) > 0 {
		builder.WriteString("\n\nAvailable categories: ")
		builder.WriteString(strings.Join(input.Categories, ", "))
	}
	return builder.String()
}

// stripJSONFences 去掉模型偶尔包裹在 JSON 外面的 markdown 代码栅栏。
func stripJSONFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func truncateRunes(content string, limit int) string {
	if limit <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
