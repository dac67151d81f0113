package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vocab-api/internal/service"
)

// AssistHandler обрабатывает вспомогательные AI-запросы: подсказку
// перевода и озвучку произношения
type AssistHandler struct {
	translationService service.TranslationService
	speechService      service.SpeechService
}

// NewAssistHandler создает новый обработчик AI-подсказок
func NewAssistHandler(translationService service.TranslationService, speechService service.SpeechService) *AssistHandler {
	return &AssistHandler{
		translationService: translationService,
		speechService:      speechService,
	}
}

// TranslateRequest представляет запрос на подсказку перевода
type TranslateRequest struct {
	Text       string `json:"text" binding:"required,min=1,max=200"`
	SourceLang string `json:"source_lang" binding:"required,max=16"`
	TargetLang string `json:"target_lang" binding:"required,max=16"`
}

// Translate возвращает подсказку перевода; итог подтверждает человек
func (h *AssistHandler) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	translation, err := h.translationService.Translate(c.Request.Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		log.Printf("[AssistHandler] Перевод не получен: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "translation is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": translation})
}

// SpeechRequest представляет запрос на озвучку слова
type SpeechRequest struct {
	Text string `json:"text" binding:"required,min=1,max=200"`
	Lang string `json:"lang" binding:"omitempty,max=16"`
}

// Speak возвращает MP3-поток с произношением слова
func (h *AssistHandler) Speak(c *gin.Context) {
	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audio, err := h.speechService.Synthesize(c.Request.Context(), req.Text, req.Lang)
	if err != nil {
		log.Printf("[AssistHandler] Озвучка не получена: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech synthesis is unavailable"})
		return
	}
	defer audio.Close()

	c.Header("Content-Type", "audio/mpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, audio); err != nil {
		log.Printf("[AssistHandler] Ошибка записи аудио в response: %v", err)
	}
}
