package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
	"github.com/yourusername/vocab-api/internal/service"
)

// DrillHandler обрабатывает запросы цикла тренировки
type DrillHandler struct {
	drillService *service.DrillService
}

// NewDrillHandler создает новый обработчик тренировки
func NewDrillHandler(drillService *service.DrillService) *DrillHandler {
	return &DrillHandler{drillService: drillService}
}

// Draw разыгрывает следующее слово. Сессия передается в query-параметре
// session_id; при его отсутствии начинается новая сессия. Параметр
// mode=all снимает фильтр по введенным словам.
func (h *DrillHandler) Draw(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)
	sessionID := c.Query("session_id")
	includeAll := c.Query("mode") == "all"

	result, err := h.drillService.DrawNext(c.Request.Context(), collectionID, sessionID, includeAll)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitAnswerRequest представляет ответ ученика на показанное слово
type SubmitAnswerRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Position  *int   `json:"position" binding:"required"`
	Answer    string `json:"answer"`
}

// SubmitAnswer проверяет ответ и возвращает вердикт со статистикой
func (h *DrillHandler) SubmitAnswer(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.drillService.SubmitAnswer(c.Request.Context(), collectionID, req.SessionID, *req.Position, req.Answer)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionRequest адресует существующую сессию тренировки
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Retry переводит сессию в повторную попытку после неверного ответа
func (h *DrillHandler) Retry(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.drillService.RetryCurrent(req.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "retrying"})
}

// Abandon бросает текущий показ
func (h *DrillHandler) Abandon(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.drillService.AbandonCurrent(req.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "abandoned"})
}

// Introduce начинает знакомство с новой партией слов
func (h *DrillHandler) Introduce(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)
	sessionID := c.Query("session_id")

	step, err := h.drillService.IntroduceBatch(c.Request.Context(), collectionID, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, step)
}

// AdvanceIntroduction подтверждает знакомство с текущим словом партии
// и возвращает следующее
func (h *DrillHandler) AdvanceIntroduction(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step, err := h.drillService.AdvanceIntroduction(c.Request.Context(), collectionID, req.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, step)
}

// handleError преобразует ошибки сервисов в HTTP-статусы.
// ErrEmptyCollection отдается как 409 с подсказкой запустить ввод партии.
func (h *DrillHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrEmptyCollection) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"hint":  "introduce a batch of new words first",
		})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrStoreUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in DrillHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
