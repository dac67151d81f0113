package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
	"github.com/yourusername/vocab-api/internal/service/drillmanager"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

// MockCollectionRepo - мок для CollectionRepository
type MockCollectionRepo struct {
	mock.Mock
}

func (m *MockCollectionRepo) Create(collection *entity.Collection) error {
	args := m.Called(collection)
	return args.Error(0)
}

func (m *MockCollectionRepo) GetByID(id uint) (*entity.Collection, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Collection), args.Error(1)
}

func (m *MockCollectionRepo) List() ([]entity.Collection, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Collection), args.Error(1)
}

func (m *MockCollectionRepo) Update(collection *entity.Collection) error {
	args := m.Called(collection)
	return args.Error(0)
}

// MockItemRepo - мок для ItemRepository
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) ListByCollection(ctx context.Context, collectionID uint) ([]entity.LexicalItem, error) {
	args := m.Called(ctx, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LexicalItem), args.Error(1)
}

func (m *MockItemRepo) GetByPosition(ctx context.Context, collectionID uint, position int) (*entity.LexicalItem, error) {
	args := m.Called(ctx, collectionID, position)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LexicalItem), args.Error(1)
}

func (m *MockItemRepo) GetBySourceText(ctx context.Context, collectionID uint, sourceText string) (*entity.LexicalItem, error) {
	args := m.Called(ctx, collectionID, sourceText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LexicalItem), args.Error(1)
}

func (m *MockItemRepo) UpdateStats(ctx context.Context, collectionID uint, position int, attempts, successes int, introduced bool, lastOutcome entity.AnswerOutcome) error {
	args := m.Called(ctx, collectionID, position, attempts, successes, introduced, lastOutcome)
	return args.Error(0)
}

func (m *MockItemRepo) MarkIntroduced(ctx context.Context, collectionID uint, position int) error {
	args := m.Called(ctx, collectionID, position)
	return args.Error(0)
}

func (m *MockItemRepo) UpdateTargetText(ctx context.Context, collectionID uint, position int, targetText string) error {
	args := m.Called(ctx, collectionID, position, targetText)
	return args.Error(0)
}

func (m *MockItemRepo) Append(ctx context.Context, item *entity.LexicalItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepo) AppendBatch(ctx context.Context, items []entity.LexicalItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockItemRepo) NextPosition(ctx context.Context, collectionID uint) (int, error) {
	args := m.Called(ctx, collectionID)
	return args.Int(0), args.Error(1)
}

// MockAnswerRepo - мок для AnswerRepository
type MockAnswerRepo struct {
	mock.Mock
}

func (m *MockAnswerRepo) Append(ctx context.Context, record *entity.AnswerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAnswerRepo) ListRecent(ctx context.Context, collectionID uint, limit int) ([]entity.AnswerRecord, error) {
	args := m.Called(ctx, collectionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AnswerRecord), args.Error(1)
}

// MockCacheRepo - мок для CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Тесты для DrillService
// ============================================================================

func testCollection() *entity.Collection {
	return &entity.Collection{
		ID:         1,
		Name:       "fr-ro basics",
		SourceLang: "fr",
		TargetLang: "ro",
		WeightMode: entity.WeightModeFailure,
		HighWeight: 15,
		SpreadK:    9,
		BatchSize:  2,
	}
}

func newDrillServiceForTest(colRepo *MockCollectionRepo, itemRepo *MockItemRepo, answerRepo *MockAnswerRepo, cacheRepo *MockCacheRepo) *DrillService {
	cfg := drillmanager.DefaultConfig()
	cfg.LockRetryInterval = time.Millisecond
	cfg.MaxLockRetries = 1
	return NewDrillService(colRepo, itemRepo, answerRepo, cacheRepo, cfg)
}

// TestDrawNext_EmptyCollection — без введенных слов розыгрыш возвращает
// ErrEmptyCollection
func TestDrawNext_EmptyCollection(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, new(MockAnswerRepo), new(MockCacheRepo))
	ctx := context.Background()

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{CollectionID: 1, Position: 0, SourceText: "chien", Introduced: false},
	}, nil)

	_, err := svc.DrawNext(ctx, 1, "", false)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyCollection))
}

// TestDrawNext_AllMode — режим "all" разыгрывает и не введенные слова
func TestDrawNext_AllMode(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, new(MockAnswerRepo), new(MockCacheRepo))
	ctx := context.Background()

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{CollectionID: 1, Position: 0, SourceText: "chien", Introduced: false},
	}, nil)

	result, err := svc.DrawNext(ctx, 1, "", true)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Position)
}

// TestDrawNext_HidesTranslation — разыгранное слово отдается без перевода,
// сессия создана и помнит показанную позицию
func TestDrawNext_HidesTranslation(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, new(MockAnswerRepo), new(MockCacheRepo))
	ctx := context.Background()

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{CollectionID: 1, Position: 3, SourceText: "chien", TargetText: "câine", Introduced: true, Attempts: 4, Successes: 3},
	}, nil)

	result, err := svc.DrawNext(ctx, 1, "", false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, 3, result.Position)
	assert.Equal(t, "chien", result.SourceText)
	assert.Equal(t, 75, result.Percentage)
}

// TestSubmitAnswer_CorrectWithoutDiacritics — ответ без диакритик
// засчитывается, запись уходит в журнал, счетчики растут
func TestSubmitAnswer_CorrectWithoutDiacritics(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	answerRepo := new(MockAnswerRepo)
	cacheRepo := new(MockCacheRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, answerRepo, cacheRepo)
	ctx := context.Background()

	item := &entity.LexicalItem{CollectionID: 1, Position: 0, SourceText: "chien", TargetText: "câine", Introduced: true}

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{*item}, nil)
	itemRepo.On("GetByPosition", ctx, uint(1), 0).Return(item, nil)
	itemRepo.On("UpdateStats", ctx, uint(1), 0, 1, 1, true, entity.OutcomeCorrect).Return(nil).Once()
	answerRepo.On("Append", ctx, mock.MatchedBy(func(r *entity.AnswerRecord) bool {
		return r.CollectionID == 1 && r.Position == 0 && r.Outcome == entity.RecordOutcomeOK
	})).Return(nil).Once()
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	cacheRepo.On("Delete", mock.Anything).Return(nil)

	drawn, err := svc.DrawNext(ctx, 1, "", false)
	require.NoError(t, err)

	result, err := svc.SubmitAnswer(ctx, 1, drawn.SessionID, 0, "Caine")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.True(t, result.FirstAttempt)
	assert.Empty(t, result.CorrectAnswer, "верный ответ не должен раскрывать эталон")
	assert.Equal(t, 1, result.Stats.Attempts)
	assert.Equal(t, 1, result.Stats.Successes)

	answerRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
}

// TestSubmitAnswer_IncorrectThenRetry — неверный ответ раскрывает эталон;
// повторная попытка дает вердикт, но в журнал и счетчики не идет
func TestSubmitAnswer_IncorrectThenRetry(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	answerRepo := new(MockAnswerRepo)
	cacheRepo := new(MockCacheRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, answerRepo, cacheRepo)
	ctx := context.Background()

	item := &entity.LexicalItem{CollectionID: 1, Position: 0, SourceText: "chien", TargetText: "câine", Introduced: true}

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{*item}, nil)
	itemRepo.On("GetByPosition", ctx, uint(1), 0).Return(item, nil)
	itemRepo.On("UpdateStats", ctx, uint(1), 0, 1, 0, true, entity.OutcomeIncorrect).Return(nil).Once()
	answerRepo.On("Append", ctx, mock.MatchedBy(func(r *entity.AnswerRecord) bool {
		return r.Outcome == entity.RecordOutcomeKO
	})).Return(nil).Once()
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	cacheRepo.On("Delete", mock.Anything).Return(nil)

	drawn, err := svc.DrawNext(ctx, 1, "", false)
	require.NoError(t, err)

	result, err := svc.SubmitAnswer(ctx, 1, drawn.SessionID, 0, "pisica")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.True(t, result.FirstAttempt)
	assert.Equal(t, "câine", result.CorrectAnswer)

	// Подцикл ретрая: вердикт есть, статистика не трогается
	svc.RetryCurrent(drawn.SessionID)
	result, err = svc.SubmitAnswer(ctx, 1, drawn.SessionID, 0, "caine")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.False(t, result.FirstAttempt)

	answerRepo.AssertNumberOfCalls(t, "Append", 1)
	itemRepo.AssertNumberOfCalls(t, "UpdateStats", 1)
}

// TestIntroduceBatch_FlowMarksOnAdvance — слова партии помечаются
// introduced на переходе, а не при показе
func TestIntroduceBatch_FlowMarksOnAdvance(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	cacheRepo := new(MockCacheRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, new(MockAnswerRepo), cacheRepo)
	ctx := context.Background()

	items := []entity.LexicalItem{
		{CollectionID: 1, Position: 0, SourceText: "chien", TargetText: "câine"},
		{CollectionID: 1, Position: 1, SourceText: "chat", TargetText: "pisică"},
	}

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return(items, nil)
	itemRepo.On("GetByPosition", ctx, uint(1), mock.Anything).Return(&items[1], nil).Maybe()
	itemRepo.On("MarkIntroduced", ctx, uint(1), mock.Anything).Return(nil)
	cacheRepo.On("Delete", mock.Anything).Return(nil)

	step, err := svc.IntroduceBatch(ctx, 1, "")
	require.NoError(t, err)
	require.False(t, step.Done)
	assert.NotEmpty(t, step.TargetText, "при знакомстве перевод показывается открыто")
	assert.Equal(t, 2, step.BatchSize)

	// Показ первого слова еще не делает его введенным
	itemRepo.AssertNotCalled(t, "MarkIntroduced", mock.Anything, mock.Anything, mock.Anything)

	step, err = svc.AdvanceIntroduction(ctx, 1, step.SessionID)
	require.NoError(t, err)
	assert.False(t, step.Done)
	itemRepo.AssertNumberOfCalls(t, "MarkIntroduced", 1)

	step, err = svc.AdvanceIntroduction(ctx, 1, step.SessionID)
	require.NoError(t, err)
	assert.True(t, step.Done, "после последнего слова партия завершена")
	itemRepo.AssertNumberOfCalls(t, "MarkIntroduced", 2)
}

// TestIntroduceBatch_NothingToIntroduce — партия пуста, шаг сразу Done
func TestIntroduceBatch_NothingToIntroduce(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, new(MockAnswerRepo), new(MockCacheRepo))
	ctx := context.Background()

	colRepo.On("GetByID", uint(1)).Return(testCollection(), nil)
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{CollectionID: 1, Position: 0, Introduced: true},
	}, nil)

	step, err := svc.IntroduceBatch(ctx, 1, "")
	require.NoError(t, err)
	assert.True(t, step.Done)
}

// TestAggregateStats — обе точности и окно считаются по своим источникам
func TestAggregateStats(t *testing.T) {
	colRepo := new(MockCollectionRepo)
	itemRepo := new(MockItemRepo)
	answerRepo := new(MockAnswerRepo)
	cacheRepo := new(MockCacheRepo)
	svc := newDrillServiceForTest(colRepo, itemRepo, answerRepo, cacheRepo)
	ctx := context.Background()

	cacheRepo.On("GetJSON", "drill:1:stats", mock.Anything).Return(apperrors.ErrNotFound)
	cacheRepo.On("SetJSON", "drill:1:stats", mock.Anything, mock.Anything).Return(nil)

	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{Position: 0, Introduced: true, Attempts: 10, Successes: 10, LastOutcome: entity.OutcomeCorrect},
		{Position: 1, Introduced: true, Attempts: 2, Successes: 1, LastOutcome: entity.OutcomeIncorrect},
		// не спрашивалось
		{Position: 2, Introduced: true, LastOutcome: entity.OutcomeUnknown},
		{Position: 3},
	}, nil)
	answerRepo.On("ListRecent", ctx, uint(1), statsWindowSize).Return([]entity.AnswerRecord{
		{Outcome: entity.RecordOutcomeOK},
		{Outcome: entity.RecordOutcomeOK},
		{Outcome: entity.RecordOutcomeKO},
		{Outcome: entity.RecordOutcomeOK},
	}, nil)

	stats, err := svc.AggregateStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, 3, stats.IntroducedItems)
	assert.Equal(t, 2, stats.AttemptedItems)
	assert.Equal(t, 12, stats.TotalAttempts)
	assert.Equal(t, 11, stats.TotalSuccesses)
	// 11/12 = 91.7%
	assert.Equal(t, 92, stats.LifetimeAccuracy)
	// 1 из 3 введенных слов с последним верным ответом
	assert.Equal(t, 33, stats.CurrentMasteryRate)
	assert.Equal(t, 4, stats.WindowSize)
	assert.Equal(t, 75, stats.WindowAccuracy)
}

// TestAggregateStats_MasteryFollowsLastOutcome — текущее владение смотрит
// только на последний исход, накопленная точность слова на него не влияет
func TestAggregateStats_MasteryFollowsLastOutcome(t *testing.T) {
	itemRepo := new(MockItemRepo)
	answerRepo := new(MockAnswerRepo)
	cacheRepo := new(MockCacheRepo)
	svc := newDrillServiceForTest(new(MockCollectionRepo), itemRepo, answerRepo, cacheRepo)
	ctx := context.Background()

	cacheRepo.On("GetJSON", "drill:1:stats", mock.Anything).Return(apperrors.ErrNotFound)
	cacheRepo.On("SetJSON", "drill:1:stats", mock.Anything, mock.Anything).Return(nil)

	// Трудное слово: 1 успех из 10 попыток, но последний ответ верный
	itemRepo.On("ListByCollection", ctx, uint(1)).Return([]entity.LexicalItem{
		{Position: 0, Introduced: true, Attempts: 10, Successes: 1, LastOutcome: entity.OutcomeCorrect},
	}, nil)
	answerRepo.On("ListRecent", ctx, uint(1), statsWindowSize).Return([]entity.AnswerRecord{}, nil)

	stats, err := svc.AggregateStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.CurrentMasteryRate)
	assert.Equal(t, 10, stats.LifetimeAccuracy)
}
