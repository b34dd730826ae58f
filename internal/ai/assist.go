package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/apthunt/apartment-crawler/internal/logger"
)

var phoneLikeRe = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{5,}\d`)

// RedactPhones replaces phone-number-shaped substrings with "[hidden]".
// Purely local; needs no model.
func RedactPhones(text string) string {
	return phoneLikeRe.ReplaceAllString(text, "[hidden]")
}

// AssistService wraps the Gemini model for the optional best-effort
// enrichment steps. Its unavailability must never block the pipeline:
// every method degrades to identity behavior on failure.
type AssistService struct {
	model  *genai.GenerativeModel
	logger *logger.Logger
}

// NewAssistService creates the Gemini-backed assist. Callers treat a nil
// service as "assist disabled" and skip enrichment.
func NewAssistService(ctx context.Context, apiKey string) (*AssistService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SetTemperature(0.0)
	model.SetTopK(1)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(800)

	return &AssistService{
		model:  model,
		logger: logger.NewLogger("assist_service"),
	}, nil
}

// ExtractLandmark asks the model for the most specific landmark or nearby
// reference in the ad text. Returns "" on any failure or when the model
// finds none.
func (s *AssistService) ExtractLandmark(ctx context.Context, text string) string {
	prompt := "Extract the most specific landmark or nearby reference " +
		"(e.g. metro station, park) from this ad text. " +
		"If none, reply with an empty string.\n\n" + text

	result, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).Warn("Landmark extraction failed, skipping")
		return ""
	}
	return result
}

// Translate renders the text into the target language, keeping all details
// but without phone numbers. Falls back to the original text on failure.
func (s *AssistService) Translate(ctx context.Context, text, targetLang string) string {
	prompt := fmt.Sprintf(
		"Translate the following text into %s, keeping all details but without any phone numbers:\n\n%s",
		targetLang, text)

	result, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).Warn("Translation failed, keeping original text")
		return text
	}
	if result == "" {
		return text
	}
	return result
}

func (s *AssistService) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return strings.TrimSpace(sb.String()), nil
}
