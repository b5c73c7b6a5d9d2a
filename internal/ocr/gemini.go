package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
)

// GeminiClient implements Client against the Google Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiClient creates a Gemini-backed OCR client.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is empty")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   client.GenerativeModel(model),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Infer sends the document bytes plus an extraction prompt and returns
// the concatenated text parts of the first candidate.
func (c *GeminiClient) Infer(ctx context.Context, data []byte, mimeType string, candidateTypes []string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := buildPrompt(candidateTypes)
	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini inference failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	c.logger.WithField("bytes", len(data)).Debug("Received Gemini OCR response")
	return sb.String(), nil
}

func buildPrompt(candidateTypes []string) string {
	types := strings.Join(candidateTypes, ", ")
	return fmt.Sprintf(`この書類の画像を解析し、以下のJSON形式のみで回答してください。説明文は不要です。
{
  "vendor_name": "取引先名",
  "amount": 金額の数値またはnull,
  "issue_date": "YYYY-MM-DD形式の発行日またはnull",
  "due_date": "YYYY-MM-DD形式の支払期限またはnull",
  "description": "内容の要約またはnull",
  "type": "次のいずれか: %s",
  "confidence": 0から1の信頼度
}`, types)
}
