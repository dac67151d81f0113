package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vocab-api/internal/handler/dto"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
	"github.com/yourusername/vocab-api/internal/service"
)

// CollectionHandler обрабатывает запросы, связанные с коллекциями
type CollectionHandler struct {
	lexiconService *service.LexiconService
	drillService   *service.DrillService
}

// NewCollectionHandler создает новый обработчик коллекций
func NewCollectionHandler(lexiconService *service.LexiconService, drillService *service.DrillService) *CollectionHandler {
	return &CollectionHandler{
		lexiconService: lexiconService,
		drillService:   drillService,
	}
}

// CreateCollectionRequest представляет запрос на создание коллекции
type CreateCollectionRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	SourceLang string `json:"source_lang" binding:"omitempty,max=16"`
	TargetLang string `json:"target_lang" binding:"omitempty,max=16"`
}

// CreateCollection обрабатывает запрос на создание коллекции
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	col, err := h.lexiconService.CreateCollection(req.Name, req.SourceLang, req.TargetLang)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCollectionResponse(col))
}

// GetCollection возвращает информацию о коллекции
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint) // Получаем из контекста

	col, err := h.lexiconService.GetCollection(collectionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(col))
}

// ListCollections возвращает список всех коллекций
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	cols, err := h.lexiconService.ListCollections()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListCollectionResponse(cols))
}

// UpdatePolicyRequest представляет запрос на изменение политики тренировки
type UpdatePolicyRequest struct {
	WeightMode           string `json:"weight_mode" binding:"required"`
	HighWeight           int    `json:"high_weight" binding:"required"`
	SpreadK              int    `json:"spread_k" binding:"required"`
	BatchSize            int    `json:"batch_size" binding:"required"`
	MarkLearnedOnCorrect bool   `json:"mark_learned_on_correct"`
}

// UpdatePolicy обрабатывает запрос на изменение политики тренировки
func (h *CollectionHandler) UpdatePolicy(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	col, err := h.lexiconService.UpdatePolicy(collectionID, req.WeightMode, req.HighWeight, req.SpreadK, req.BatchSize, req.MarkLearnedOnCorrect)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(col))
}

// GetStats возвращает агрегаты прогресса коллекции
func (h *CollectionHandler) GetStats(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	stats, err := h.drillService.AggregateStats(c.Request.Context(), collectionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleError преобразует ошибки сервисов в HTTP-статусы
func (h *CollectionHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrStoreUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in CollectionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
