// Package ocr talks to the AI inference service and normalizes its
// free-text responses into strict OcrResult records.
package ocr

import "context"

// Client is the inference interface. Implementations return the model's
// raw text response; callers must treat it as adversarial input and run
// it through ParseModelResponse.
type Client interface {
	Infer(ctx context.Context, data []byte, mimeType string, candidateTypes []string) (string, error)
}
