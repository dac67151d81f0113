package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	"github.com/yourusername/vocab-api/internal/domain/repository"
	"github.com/yourusername/vocab-api/internal/service/drillmanager"
)

// statsWindowSize — размер окна "текущей" точности по журналу ответов
const statsWindowSize = 100

// statsCacheTTL — время жизни кешированных агрегатов коллекции
const statsCacheTTL = 30 * time.Second

// DrawResult — разыгранное слово, готовое к показу. Перевод наружу не
// отдается: проверка ответа выполняется только на сервере.
type DrawResult struct {
	SessionID  string `json:"session_id"`
	Position   int    `json:"position"`
	SourceText string `json:"source_text"`
	Attempts   int    `json:"attempts"`
	Percentage int    `json:"percentage"`
}

// JudgmentResult — вердикт по ответу ученика
type JudgmentResult struct {
	Correct bool `json:"correct"`

	// CorrectAnswer раскрывается только после неверного ответа
	CorrectAnswer string `json:"correct_answer,omitempty"`

	// FirstAttempt — пошла ли эта попытка в статистику
	FirstAttempt bool `json:"first_attempt"`

	Stats *drillmanager.AttemptStats `json:"stats"`
}

// IntroductionStep — одно слово партии знакомства; здесь перевод
// показывается открыто
type IntroductionStep struct {
	SessionID  string `json:"session_id"`
	Position   int    `json:"position"`
	SourceText string `json:"source_text"`
	TargetText string `json:"target_text"`
	Index      int    `json:"index"`
	BatchSize  int    `json:"batch_size"`
	Done       bool   `json:"done"`
}

// CollectionStats — агрегаты прогресса по коллекции. Точность считается
// двумя способами: за все время (сумма счетчиков) и как среднее текущих
// рейтингов слов; окно показывает точность последних ответов по журналу.
type CollectionStats struct {
	TotalItems      int `json:"total_items"`
	IntroducedItems int `json:"introduced_items"`
	AttemptedItems  int `json:"attempted_items"`

	TotalAttempts    int `json:"total_attempts"`
	TotalSuccesses   int `json:"total_successes"`
	LifetimeAccuracy int `json:"lifetime_accuracy"`

	CurrentMasteryRate int `json:"current_mastery_rate"`

	WindowSize     int `json:"window_size"`
	WindowAccuracy int `json:"window_accuracy"`
}

// DrillService — фасад движка тренировки: розыгрыш слова, проверка ответа,
// ввод новых партий и агрегаты прогресса. Вся случайность и состояние
// сессий живут внутри, хендлеры работают только с этим фасадом.
type DrillService struct {
	collectionRepo repository.CollectionRepository
	itemRepo       repository.ItemRepository
	answerRepo     repository.AnswerRepository
	cacheRepo      repository.CacheRepository
	config         *drillmanager.Config

	selector   *drillmanager.Selector
	introducer *drillmanager.Introducer
	tracker    *drillmanager.ProgressTracker
	sessions   *drillmanager.SessionStore
}

// NewDrillService создает новый сервис тренировки
func NewDrillService(
	collectionRepo repository.CollectionRepository,
	itemRepo repository.ItemRepository,
	answerRepo repository.AnswerRepository,
	cacheRepo repository.CacheRepository,
	config *drillmanager.Config,
) *DrillService {
	deps := &drillmanager.Dependencies{
		ItemRepo:   itemRepo,
		AnswerRepo: answerRepo,
		CacheRepo:  cacheRepo,
		Config:     config,
	}
	return &DrillService{
		collectionRepo: collectionRepo,
		itemRepo:       itemRepo,
		answerRepo:     answerRepo,
		cacheRepo:      cacheRepo,
		config:         config,
		selector:       drillmanager.NewSelector(),
		introducer:     drillmanager.NewIntroducer(),
		tracker:        drillmanager.NewProgressTracker(config, deps),
		sessions:       drillmanager.NewSessionStore(),
	}
}

// DrawNext разыгрывает следующее слово для тренировки. Пустой sessionID
// начинает новую сессию; ее идентификатор возвращается в результате.
// includeAll снимает фильтр по introduced — розыгрыш идет по всему
// словарю (режим "all"). Возвращает ErrEmptyCollection, когда нет ни
// одного подходящего слова — клиенту стоит предложить ввод первой партии.
func (s *DrillService) DrawNext(ctx context.Context, collectionID uint, sessionID string, includeAll bool) (*DrawResult, error) {
	col, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	eligible := drillmanager.EligibleIntroduced
	if includeAll {
		eligible = drillmanager.EligibleAll
	}

	weights := drillmanager.WeightConfigFor(col, s.config)
	item, err := s.selector.Draw(items, weights, eligible)
	if err != nil {
		return nil, err
	}

	session := s.sessions.GetOrCreate(sessionID, collectionID)
	session.BeginPresentation(item.Position)

	return &DrawResult{
		SessionID:  session.ID,
		Position:   item.Position,
		SourceText: item.SourceText,
		Attempts:   item.Attempts,
		Percentage: item.Percentage(),
	}, nil
}

// SubmitAnswer проверяет ответ ученика на слово position. Обе стороны
// сравнения проходят через канонизацию языка перевода, так что регистр
// и диакритики на вердикт не влияют.
//
// В статистику и журнал идет только первая попытка текущего показа;
// повторные ответы (подцикл "попробовать еще раз") дают вердикт, но
// счетчики не трогают.
func (s *DrillService) SubmitAnswer(ctx context.Context, collectionID uint, sessionID string, position int, answer string) (*JudgmentResult, error) {
	col, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByPosition(ctx, collectionID, position)
	if err != nil {
		return nil, err
	}

	canon := drillmanager.NewCanonicalizer(col.TargetLang)
	isCorrect := canon.Equal(answer, item.TargetText)

	session := s.sessions.GetOrCreate(sessionID, collectionID)
	isFirstAttempt := session.Judge(position, isCorrect)

	if isFirstAttempt {
		// Журнал пишется до счетчиков: потерянная запись журнала хуже
		// расхождения в одну попытку
		record := &entity.AnswerRecord{
			CollectionID: collectionID,
			Position:     position,
			SourceText:   item.SourceText,
			Submitted:    answer,
			Expected:     item.TargetText,
			Outcome:      entity.RecordOutcome(isCorrect),
		}
		if err := s.answerRepo.Append(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to append answer record: %w", err)
		}
	}

	stats, err := s.tracker.RecordFirstAttempt(ctx, col, position, isCorrect, isFirstAttempt)
	if err != nil {
		return nil, err
	}

	if isFirstAttempt {
		s.invalidateStatsCache(collectionID)
	}

	result := &JudgmentResult{
		Correct:      isCorrect,
		FirstAttempt: isFirstAttempt,
		Stats:        stats,
	}
	if !isCorrect {
		result.CorrectAnswer = item.TargetText
	}
	return result, nil
}

// RetryCurrent переводит сессию в подцикл повторной попытки после
// неверного ответа
func (s *DrillService) RetryCurrent(sessionID string) {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.Retry()
	}
}

// AbandonCurrent бросает текущий показ (и партию знакомства, если шла)
func (s *DrillService) AbandonCurrent(sessionID string) {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.Abandon()
	}
}

// IntroduceBatch начинает знакомство с новой партией слов: до batchSize
// ни разу не показанных слов в случайном порядке. Возвращает первый шаг;
// Done=true означает, что незнакомых слов в коллекции не осталось.
func (s *DrillService) IntroduceBatch(ctx context.Context, collectionID uint, sessionID string) (*IntroductionStep, error) {
	col, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	batchSize := col.BatchSize
	if batchSize <= 0 {
		batchSize = s.config.BatchSize
	}
	batch := s.introducer.NextBatch(items, batchSize)

	session := s.sessions.GetOrCreate(sessionID, collectionID)
	if len(batch) == 0 {
		return &IntroductionStep{SessionID: session.ID, Done: true}, nil
	}

	positions := make([]int, len(batch))
	for i := range batch {
		positions[i] = batch[i].Position
	}
	session.StartBatch(positions)

	return &IntroductionStep{
		SessionID:  session.ID,
		Position:   batch[0].Position,
		SourceText: batch[0].SourceText,
		TargetText: batch[0].TargetText,
		Index:      0,
		BatchSize:  len(batch),
	}, nil
}

// AdvanceIntroduction подтверждает знакомство с текущим словом партии и
// возвращает следующее. Флаг introduced выставляется именно здесь, на
// переходе: показанное, но не подтвержденное слово знакомым не считается.
func (s *DrillService) AdvanceIntroduction(ctx context.Context, collectionID uint, sessionID string) (*IntroductionStep, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return &IntroductionStep{SessionID: sessionID, Done: true}, nil
	}

	passed, next, hasNext, ok := session.AdvanceBatch()
	if !ok {
		return &IntroductionStep{SessionID: session.ID, Done: true}, nil
	}

	if err := s.itemRepo.MarkIntroduced(ctx, collectionID, passed); err != nil {
		return nil, fmt.Errorf("failed to mark item introduced: %w", err)
	}
	s.invalidateStatsCache(collectionID)

	if !hasNext {
		return &IntroductionStep{SessionID: session.ID, Done: true}, nil
	}

	item, err := s.itemRepo.GetByPosition(ctx, collectionID, next)
	if err != nil {
		return nil, err
	}

	idx, size := session.BatchProgress()
	return &IntroductionStep{
		SessionID:  session.ID,
		Position:   item.Position,
		SourceText: item.SourceText,
		TargetText: item.TargetText,
		Index:      idx,
		BatchSize:  size,
	}, nil
}

// AggregateStats возвращает агрегаты прогресса коллекции. Результат
// кешируется на statsCacheTTL; кеш best-effort, при недоступном Redis
// агрегаты считаются заново.
func (s *DrillService) AggregateStats(ctx context.Context, collectionID uint) (*CollectionStats, error) {
	cacheKey := fmt.Sprintf("drill:%d:stats", collectionID)

	var cached CollectionStats
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	items, err := s.itemRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	stats := &CollectionStats{TotalItems: len(items)}
	masteredNow := 0
	for i := range items {
		if items[i].Introduced {
			stats.IntroducedItems++
			if items[i].LastOutcome == entity.OutcomeCorrect {
				masteredNow++
			}
		}
		if items[i].Attempts > 0 {
			stats.AttemptedItems++
		}
		stats.TotalAttempts += items[i].Attempts
		stats.TotalSuccesses += items[i].Successes
	}
	if stats.TotalAttempts > 0 {
		stats.LifetimeAccuracy = int(math.Round(float64(stats.TotalSuccesses) / float64(stats.TotalAttempts) * 100))
	}
	// Текущее владение — доля введенных слов, чей последний ответ был
	// верным. Именно последний исход, а не накопленная точность: слово с
	// историей 1/10, отвеченное верно только что, считается освоенным.
	if stats.IntroducedItems > 0 {
		stats.CurrentMasteryRate = int(math.Round(float64(masteredNow) / float64(stats.IntroducedItems) * 100))
	}

	records, err := s.answerRepo.ListRecent(ctx, collectionID, statsWindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent answers: %w", err)
	}
	stats.WindowSize = len(records)
	correct := 0
	for i := range records {
		if records[i].Correct() {
			correct++
		}
	}
	if stats.WindowSize > 0 {
		stats.WindowAccuracy = int(math.Round(float64(correct) / float64(stats.WindowSize) * 100))
	}

	if err := s.cacheRepo.SetJSON(cacheKey, stats, statsCacheTTL); err != nil {
		log.Printf("[DrillService] WARNING: не удалось закешировать статистику коллекции %d: %v", collectionID, err)
	}
	return stats, nil
}

// PruneSessions вычищает неактивные сессии; вызывается по тикеру из main
func (s *DrillService) PruneSessions() {
	if removed := s.sessions.PruneIdle(s.config.SessionTTL); removed > 0 {
		log.Printf("[DrillService] Вычищено неактивных сессий: %d", removed)
	}
}

func (s *DrillService) invalidateStatsCache(collectionID uint) {
	key := fmt.Sprintf("drill:%d:stats", collectionID)
	if err := s.cacheRepo.Delete(key); err != nil {
		log.Printf("[DrillService] WARNING: не удалось сбросить кеш статистики %s: %v", key, err)
	}
}
