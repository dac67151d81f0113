package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// TranslationService suggests a translation for a word pair being added.
type TranslationService interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// NoopTranslationService is used when no OpenAI key is configured.
type NoopTranslationService struct{}

func (s *NoopTranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	log.Printf("[TranslationService] noop translate text=%q %s->%s", text, sourceLang, targetLang)
	return "", fmt.Errorf("translation service is not configured")
}

// OpenAITranslationService переводит слова через Chat Completions.
// Используется только как подсказка при пополнении словаря; итоговый
// перевод всегда подтверждает человек.
type OpenAITranslationService struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslationService создает сервис перевода
func NewOpenAITranslationService(apiKey, model string) (*OpenAITranslationService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslationService{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Translate возвращает перевод text с sourceLang на targetLang.
// Модель просится ответить одним словом без пояснений; все лишнее
// (кавычки, точка в конце) срезается.
func (s *OpenAITranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text to translate is required")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are a dictionary. Translate the word or phrase from %s to %s. Reply with the translation only, no explanations, no punctuation.",
					sourceLang, targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	translation = strings.Trim(translation, "\"'.")
	if translation == "" {
		return "", fmt.Errorf("chat completion returned empty translation")
	}
	return translation, nil
}
