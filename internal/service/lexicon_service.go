package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	"github.com/yourusername/vocab-api/internal/domain/repository"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
)

// LexiconService управляет словарями: коллекциями и их парами слов.
// Статистику слов сервис не трогает — это территория DrillService.
type LexiconService struct {
	collectionRepo repository.CollectionRepository
	itemRepo       repository.ItemRepository
}

// NewLexiconService создает новый сервис словарей
func NewLexiconService(collectionRepo repository.CollectionRepository, itemRepo repository.ItemRepository) *LexiconService {
	return &LexiconService{
		collectionRepo: collectionRepo,
		itemRepo:       itemRepo,
	}
}

// CreateCollection создает коллекцию с политикой тренировки по умолчанию.
// Пустые языковые коды заменяются дефолтной парой fr→ro.
func (s *LexiconService) CreateCollection(name, sourceLang, targetLang string) (*entity.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", apperrors.ErrValidation)
	}
	if sourceLang == "" {
		sourceLang = "fr"
	}
	if targetLang == "" {
		targetLang = "ro"
	}

	col := &entity.Collection{
		Name:       name,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		WeightMode: entity.WeightModeFailure,
	}
	if err := s.collectionRepo.Create(col); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return col, nil
}

// GetCollection возвращает коллекцию по ID
func (s *LexiconService) GetCollection(id uint) (*entity.Collection, error) {
	return s.collectionRepo.GetByID(id)
}

// ListCollections возвращает все коллекции
func (s *LexiconService) ListCollections() ([]entity.Collection, error) {
	return s.collectionRepo.List()
}

// UpdatePolicy обновляет политику тренировки коллекции. Значения вне
// допустимых диапазонов отклоняются, чтобы не развалить функцию веса.
func (s *LexiconService) UpdatePolicy(id uint, weightMode string, highWeight, spreadK, batchSize int, markLearnedOnCorrect bool) (*entity.Collection, error) {
	col, err := s.collectionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if weightMode != entity.WeightModeFresh && weightMode != entity.WeightModeFailure {
		return nil, fmt.Errorf("%w: weight_mode must be 'fresh' or 'failure'", apperrors.ErrValidation)
	}
	if highWeight < 11 || highWeight > 20 {
		return nil, fmt.Errorf("%w: high_weight must be in [11, 20]", apperrors.ErrValidation)
	}
	if spreadK <= 0 {
		return nil, fmt.Errorf("%w: spread_k must be positive", apperrors.ErrValidation)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch_size must be positive", apperrors.ErrValidation)
	}

	col.WeightMode = weightMode
	col.HighWeight = highWeight
	col.SpreadK = spreadK
	col.BatchSize = batchSize
	col.MarkLearnedOnCorrect = markLearnedOnCorrect

	if err := s.collectionRepo.Update(col); err != nil {
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	return col, nil
}

// ListWords возвращает все слова коллекции в порядке позиций
func (s *LexiconService) ListWords(ctx context.Context, collectionID uint) ([]entity.LexicalItem, error) {
	if _, err := s.collectionRepo.GetByID(collectionID); err != nil {
		return nil, err
	}
	return s.itemRepo.ListByCollection(ctx, collectionID)
}

// AddOrUpdateWord добавляет пару слово-перевод или правит перевод
// существующего слова. Существующее слово (по тексту подсказки) правится
// на месте: позиция и накопленная статистика сохраняются; новое слово
// встает в первую свободную позицию со свежей статистикой.
func (s *LexiconService) AddOrUpdateWord(ctx context.Context, collectionID uint, sourceText, targetText string) (*entity.LexicalItem, error) {
	sourceText = strings.TrimSpace(sourceText)
	targetText = strings.TrimSpace(targetText)
	if sourceText == "" || targetText == "" {
		return nil, fmt.Errorf("%w: both source and target texts are required", apperrors.ErrValidation)
	}

	if _, err := s.collectionRepo.GetByID(collectionID); err != nil {
		return nil, err
	}

	existing, err := s.itemRepo.GetBySourceText(ctx, collectionID, sourceText)
	if err == nil {
		if err := s.itemRepo.UpdateTargetText(ctx, collectionID, existing.Position, targetText); err != nil {
			return nil, fmt.Errorf("failed to update word: %w", err)
		}
		existing.TargetText = targetText
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	position, err := s.itemRepo.NextPosition(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate position: %w", err)
	}

	item := &entity.LexicalItem{
		CollectionID: collectionID,
		Position:     position,
		SourceText:   sourceText,
		TargetText:   targetText,
		LastOutcome:  entity.OutcomeUnknown,
	}
	if err := s.itemRepo.Append(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to append word: %w", err)
	}
	return item, nil
}

// ImportResult — итог импорта xlsx-файла
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ImportXLSX загружает пары слов из xlsx-файла: колонка A — подсказка,
// колонка B — перевод, первая строка считается заголовком. Уже известные
// слова правятся на месте, новые добавляются в конец. Строки без одной
// из колонок пропускаются.
func (s *LexiconService) ImportXLSX(ctx context.Context, collectionID uint, r io.Reader) (*ImportResult, error) {
	if _, err := s.collectionRepo.GetByID(collectionID); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid xlsx file: %v", apperrors.ErrValidation, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[LexiconService] WARNING: не удалось закрыть xlsx: %v", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx file has no sheets", apperrors.ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	existing, err := s.itemRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	bySource := make(map[string]*entity.LexicalItem, len(existing))
	for i := range existing {
		bySource[existing[i].SourceText] = &existing[i]
	}

	nextPos, err := s.itemRepo.NextPosition(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate position: %w", err)
	}

	result := &ImportResult{}
	var fresh []entity.LexicalItem
	// Повтор источника внутри файла правит еще не записанную строку в
	// памяти; append может переаллоцировать fresh, поэтому держим индексы,
	// а не указатели.
	pending := make(map[string]int)
	for i, row := range rows {
		if i == 0 {
			continue // заголовок
		}
		if len(row) < 2 {
			result.Skipped++
			continue
		}
		source := strings.TrimSpace(row[0])
		target := strings.TrimSpace(row[1])
		if source == "" || target == "" {
			result.Skipped++
			continue
		}

		if idx, ok := pending[source]; ok {
			if fresh[idx].TargetText != target {
				fresh[idx].TargetText = target
				result.Updated++
			} else {
				result.Skipped++
			}
			continue
		}

		if item, ok := bySource[source]; ok {
			if item.TargetText != target {
				if err := s.itemRepo.UpdateTargetText(ctx, collectionID, item.Position, target); err != nil {
					return nil, fmt.Errorf("failed to update word %q: %w", source, err)
				}
				item.TargetText = target
				result.Updated++
			} else {
				result.Skipped++
			}
			continue
		}

		fresh = append(fresh, entity.LexicalItem{
			CollectionID: collectionID,
			Position:     nextPos,
			SourceText:   source,
			TargetText:   target,
			LastOutcome:  entity.OutcomeUnknown,
		})
		pending[source] = len(fresh) - 1
		nextPos++
		result.Added++
	}

	if len(fresh) > 0 {
		if err := s.itemRepo.AppendBatch(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to append imported words: %w", err)
		}
	}

	log.Printf("[LexiconService] Импорт в коллекцию %d: добавлено %d, обновлено %d, пропущено %d",
		collectionID, result.Added, result.Updated, result.Skipped)
	return result, nil
}

// ExportXLSX выгружает словарь коллекции со статистикой в xlsx.
// Возвращаемый файл должен быть закрыт вызывающей стороной.
func (s *LexiconService) ExportXLSX(ctx context.Context, collectionID uint) (*excelize.File, error) {
	col, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := []interface{}{col.SourceLang, col.TargetLang, "attempts", "successes", "percentage", "introduced"}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			items[i].SourceText,
			items[i].TargetText,
			items[i].Attempts,
			items[i].Successes,
			items[i].Percentage(),
			items[i].Introduced,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush xlsx: %w", err)
	}
	return f, nil
}
