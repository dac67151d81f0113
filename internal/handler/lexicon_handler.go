package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vocab-api/internal/handler/dto"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
	"github.com/yourusername/vocab-api/internal/service"
)

// maxImportSize ограничивает размер загружаемого xlsx (8 МБ)
const maxImportSize = 8 << 20

// LexiconHandler обрабатывает запросы по словарю коллекции
type LexiconHandler struct {
	lexiconService     *service.LexiconService
	translationService service.TranslationService
}

// NewLexiconHandler создает новый обработчик словаря
func NewLexiconHandler(lexiconService *service.LexiconService, translationService service.TranslationService) *LexiconHandler {
	return &LexiconHandler{
		lexiconService:     lexiconService,
		translationService: translationService,
	}
}

// ListWords возвращает слова коллекции со статистикой, без переводов
func (h *LexiconHandler) ListWords(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	items, err := h.lexiconService.ListWords(c.Request.Context(), collectionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListWordResponse(items))
}

// AddWordRequest представляет запрос на добавление пары слово-перевод.
// Пустой target_text просит сервер подсказать перевод через AI.
type AddWordRequest struct {
	SourceText string `json:"source_text" binding:"required,min=1,max=200"`
	TargetText string `json:"target_text" binding:"omitempty,max=200"`
}

// AddWord добавляет пару слов или правит перевод существующей пары
func (h *LexiconHandler) AddWord(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	var req AddWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetText := req.TargetText
	if targetText == "" {
		col, err := h.lexiconService.GetCollection(collectionID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		suggested, err := h.translationService.Translate(c.Request.Context(), req.SourceText, col.SourceLang, col.TargetLang)
		if err != nil {
			log.Printf("[LexiconHandler] Перевод для %q не получен: %v", req.SourceText, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "target_text is required when translation is unavailable"})
			return
		}
		targetText = suggested
	}

	item, err := h.lexiconService.AddOrUpdateWord(c.Request.Context(), collectionID, req.SourceText, targetText)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Полный ответ с переводом: добавляющий словарь и так его знает
	c.JSON(http.StatusCreated, gin.H{
		"position":    item.Position,
		"source_text": item.SourceText,
		"target_text": item.TargetText,
	})
}

// ImportWords загружает пары слов из xlsx-файла (multipart-поле "file")
func (h *LexiconHandler) ImportWords(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	result, err := h.lexiconService.ImportXLSX(c.Request.Context(), collectionID, f)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportWords выгружает словарь коллекции со статистикой в xlsx
func (h *LexiconHandler) ExportWords(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	f, err := h.lexiconService.ExportXLSX(c.Request.Context(), collectionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("collection_%d_words_%s", collectionID, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LexiconHandler] Ошибка записи Excel в response: %v", err)
	}
}

// handleError преобразует ошибки сервисов в HTTP-статусы
func (h *LexiconHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrStoreUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in LexiconHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
