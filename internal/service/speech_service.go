package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// SpeechService turns a word into spoken audio for pronunciation practice.
type SpeechService interface {
	// Synthesize возвращает поток MP3; закрывает его вызывающая сторона
	Synthesize(ctx context.Context, text, lang string) (io.ReadCloser, error)
}

// NoopSpeechService is used when no OpenAI key is configured.
type NoopSpeechService struct{}

func (s *NoopSpeechService) Synthesize(ctx context.Context, text, lang string) (io.ReadCloser, error) {
	log.Printf("[SpeechService] noop synthesize text=%q lang=%s", text, lang)
	return nil, fmt.Errorf("speech service is not configured")
}

// OpenAISpeechService озвучивает слова через модель TTS
type OpenAISpeechService struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAISpeechService создает сервис озвучки
func NewOpenAISpeechService(apiKey, voice string) (*OpenAISpeechService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	v := openai.SpeechVoice(voice)
	if v == "" {
		v = openai.VoiceAlloy
	}
	return &OpenAISpeechService{
		client: openai.NewClient(apiKey),
		voice:  v,
	}, nil
}

// Synthesize возвращает MP3-поток с озвучкой text. Язык модель
// определяет по самому тексту, параметр lang оставлен в контракте
// на случай провайдера с явным выбором языка.
func (s *OpenAISpeechService) Synthesize(ctx context.Context, text, lang string) (io.ReadCloser, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text to synthesize is required")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return resp, nil
}
