package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"sajangnote/pkg/utils"
)

// GeminiAnalyzer implements PlaceAnalyzer on Gemini with JSON-only output.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

const analysisSchema = `
{
  "name": "string",
  "address": "string",
  "crawled_data": {
    "category": "string",
    "summary": "string",
    "menu_highlights": ["string"],
    "keywords": ["string"],
    "strengths": ["string"],
    "target_customers": "string"
  },
  "chunks": ["string"]
}`

// markdownPromptBudget keeps very long pages from blowing the context
// window; the head of a storefront page carries the identifying content.
const markdownPromptBudget = 30000

func (g *GeminiAnalyzer) Analyze(ctx context.Context, job AnalysisJob) (*AnalysisResult, error) {
	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.1)
	m.SetTopP(0.5)
	m.SetTopK(20)

	md := utils.TruncateUTF8(job.Markdown, markdownPromptBudget)

	var metaBuf strings.Builder
	for k, v := range job.Metadata {
		fmt.Fprintf(&metaBuf, "- %s: %v\n", k, v)
	}

	prompt := fmt.Sprintf(`
You are analyzing the scraped page of a Korean local storefront (Naver Place).
Return **JSON only**, exactly matching the schema below. Write values in Korean.

Schema (match keys exactly):
%s

Rules:
- "name" and "address" come from the page itself; empty string when absent.
- "crawled_data.summary" is 2-3 sentences a marketer could reuse.
- "chunks" are 3-8 self-contained passages (menu, reviews, intro) worth
  retrieving later, each under 500 characters, copied or lightly cleaned from
  the page.
- No comments, no markdown fences.

Page metadata:
%s

Page content (markdown):
%s
`, analysisSchema, metaBuf.String(), md)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	content, err := candidateText(resp)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("gemini returned invalid json")
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("gemini result decode: %w", err)
	}
	if result.CrawledData == nil {
		return nil, fmt.Errorf("gemini result missing crawled_data")
	}
	return &result, nil
}

// candidateText pulls the text of the first candidate. A safety-blocked
// candidate arrives with a nil Content, so every level is checked before
// dereferencing.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content (finish reason %v)", cand.FinishReason)
	}
	return fmt.Sprintf("%v", cand.Content.Parts[0]), nil
}
