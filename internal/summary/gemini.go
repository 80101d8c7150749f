package summary

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const summaryPrompt = "Summarize the following group chat conversation in a few sentences. " +
	"Mention the main topics and who raised them.\n\n"

// GeminiSummarizer implements Summarizer against the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiSummarizer{client: client, model: model}, nil
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(summaryPrompt+transcript), nil)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	if result == nil {
		return "", errors.New("no summary generated")
	}
	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("reading summary response: %w", err)
	}
	if text == "" {
		return "", errors.New("empty summary generated")
	}
	return text, nil
}
