package drillmanager

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState — состояние конечного автомата одной сессии тренировки
type SessionState string

const (
	StateIdle                SessionState = "idle"
	StateAwaitingAnswer      SessionState = "awaiting_answer"
	StateJudgedCorrect       SessionState = "judged_correct"
	StateJudgedIncorrect     SessionState = "judged_incorrect"
	StateRetryAwaitingAnswer SessionState = "retry_awaiting_answer"
)

// DrillSession хранит состояние одной сессии тренировки: какой вопрос
// показан, была ли уже первая попытка, где мы в партии новых слов.
//
// Автомат намеренно снисходителен: из обычной работы недостижимо ни одно
// терминальное состояние, любой сбой сводится к повторяемому Judged-переходу.
type DrillSession struct {
	ID           string
	CollectionID uint

	mu          sync.Mutex
	state       SessionState
	position    int
	hasCurrent  bool
	firstJudged bool

	batch    []int
	batchIdx int

	lastSeen time.Time
}

func newDrillSession(id string, collectionID uint) *DrillSession {
	return &DrillSession{
		ID:           id,
		CollectionID: collectionID,
		state:        StateIdle,
		lastSeen:     time.Now(),
	}
}

// State возвращает текущее состояние автомата
func (s *DrillSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentPosition возвращает позицию показанного слова
func (s *DrillSession) CurrentPosition() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, s.hasCurrent
}

// BeginPresentation — переход Idle → AwaitingAnswer: слово разыграно и
// показано ученику. Начинается новый показ, счетчик первой попытки сброшен.
func (s *DrillSession) BeginPresentation(position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAwaitingAnswer
	s.position = position
	s.hasCurrent = true
	s.firstJudged = false
	s.lastSeen = time.Now()
}

// Judge — переход AwaitingAnswer → Judged. Возвращает, была ли эта
// попытка первой для текущего показа: в статистику идет только она.
// Повторные ответы на то же слово (подцикл "попробовать еще раз")
// проходят через автомат, но первой попыткой уже не считаются.
//
// Judged(correct) авто-продвигается в Idle: следующий розыгрыш начинает
// новый показ. Judged(incorrect) оставляет слово текущим для ретрая.
func (s *DrillSession) Judge(position int, isCorrect bool) (isFirstAttempt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	// Ответ не на текущее слово (устаревший клиент) статистику не трогает
	if !s.hasCurrent || position != s.position {
		return false
	}

	isFirstAttempt = s.state == StateAwaitingAnswer && !s.firstJudged
	s.firstJudged = true

	if isCorrect {
		s.state = StateIdle
		s.hasCurrent = false
	} else {
		s.state = StateJudgedIncorrect
	}
	return isFirstAttempt
}

// Retry — переход Judged(incorrect) → RetryAwaitingAnswer: ученик
// пробует то же слово еще раз, без влияния на статистику
func (s *DrillSession) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateJudgedIncorrect {
		s.state = StateRetryAwaitingAnswer
		s.lastSeen = time.Now()
	}
}

// Abandon возвращает автомат в Idle, бросая текущий показ
func (s *DrillSession) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.hasCurrent = false
	s.batch = nil
	s.batchIdx = 0
	s.lastSeen = time.Now()
}

// StartBatch запоминает последовательность позиций партии новых слов
func (s *DrillSession) StartBatch(positions []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = positions
	s.batchIdx = 0
	s.lastSeen = time.Now()
}

// CurrentBatchPosition возвращает позицию текущего слова партии
func (s *DrillSession) CurrentBatchPosition() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchIdx >= len(s.batch) {
		return 0, false
	}
	return s.batch[s.batchIdx], true
}

// BatchProgress возвращает индекс текущего слова партии и ее размер
func (s *DrillSession) BatchProgress() (index int, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchIdx, len(s.batch)
}

// AdvanceBatch сдвигает партию на одно слово вперед. Возвращает позицию,
// мимо которой прошли (именно ее пора помечать introduced — знакомство
// фиксируется на переходе, а не на показе), и позицию следующего слова.
func (s *DrillSession) AdvanceBatch() (passed int, next int, hasNext bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if s.batchIdx >= len(s.batch) {
		return 0, 0, false, false
	}
	passed = s.batch[s.batchIdx]
	s.batchIdx++
	if s.batchIdx < len(s.batch) {
		return passed, s.batch[s.batchIdx], true, true
	}
	return passed, 0, false, true
}

// SessionStore хранит активные сессии тренировки в памяти процесса
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*DrillSession
}

// NewSessionStore создает новое хранилище сессий
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*DrillSession)}
}

// GetOrCreate возвращает сессию по ID, создавая новую при пустом или
// неизвестном ID. ID, привязанный к другой коллекции, не переиспользуется:
// новая сессия получает свежий идентификатор, чужое состояние не трогается.
func (st *SessionStore) GetOrCreate(id string, collectionID uint) *DrillSession {
	if id != "" {
		st.mu.RLock()
		s, ok := st.sessions[id]
		st.mu.RUnlock()
		if ok {
			if s.CollectionID == collectionID {
				return s
			}
			id = ""
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	s := newDrillSession(id, collectionID)

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()
	return s
}

// Get возвращает сессию по ID
func (st *SessionStore) Get(id string) (*DrillSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// PruneIdle удаляет сессии, неактивные дольше maxIdle, и возвращает их число
func (st *SessionStore) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
