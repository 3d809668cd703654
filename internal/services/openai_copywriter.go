package services

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAICopyWriter struct {
	client *openai.Client
	model  string
}

func NewOpenAICopyWriter(apiKey, model string) *OpenAICopyWriter {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICopyWriter{client: openai.NewClient(apiKey), model: model}
}

var copyTypeInstructions = map[string]string{
	"sns":          "인스타그램/SNS용 짧은 홍보 문구. 해시태그 3-5개 포함, 300자 이내.",
	"blog":         "네이버 블로그용 소개 글. 소제목 포함, 800-1200자.",
	"event":        "이벤트/프로모션 안내문. 기간과 혜택이 눈에 띄게, 400자 이내.",
	"review_reply": "고객 리뷰에 대한 사장님 답글. 정중하고 따뜻하게, 200자 이내.",
}

func (w *OpenAICopyWriter) Write(ctx context.Context, prompt CopyPrompt) (string, string, error) {
	instruction, ok := copyTypeInstructions[prompt.CopyType]
	if !ok {
		instruction = "매장 홍보 문구."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "매장 이름: %s\n\n", prompt.PlaceName)
	fmt.Fprintf(&b, "매장 분석 데이터(JSON):\n%s\n\n", prompt.CrawledData)
	if len(prompt.Chunks) > 0 {
		b.WriteString("매장 페이지에서 발췌한 내용:\n")
		for _, c := range prompt.Chunks {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	if len(prompt.References) > 0 {
		b.WriteString("참고 페이지 내용:\n")
		for _, r := range prompt.References {
			fmt.Fprintf(&b, "---\n%s\n", r)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "요청: %s\n", instruction)
	if prompt.Tone != "" {
		fmt.Fprintf(&b, "톤: %s\n", prompt.Tone)
	}

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "당신은 한국 소상공인을 위한 마케팅 카피라이터입니다. 매장 데이터에 근거해, 과장 없이 자연스러운 한국어 문구를 작성합니다. 문구 본문만 출력하세요.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: b.String(),
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), w.model, nil
}
