package drillmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Тесты для DrillSession и SessionStore
// ============================================================================

// TestSession_CorrectAnswerFlow — верный ответ: первая попытка засчитана,
// автомат вернулся в Idle и готов к следующему розыгрышу
func TestSession_CorrectAnswerFlow(t *testing.T) {
	s := newDrillSession("s1", 1)
	assert.Equal(t, StateIdle, s.State())

	s.BeginPresentation(3)
	assert.Equal(t, StateAwaitingAnswer, s.State())
	pos, ok := s.CurrentPosition()
	require.True(t, ok)
	assert.Equal(t, 3, pos)

	first := s.Judge(3, true)
	assert.True(t, first, "первый ответ на показ должен считаться первой попыткой")
	assert.Equal(t, StateIdle, s.State())
	_, ok = s.CurrentPosition()
	assert.False(t, ok, "после верного ответа текущего слова нет")
}

// TestSession_RetryFlow — неверный ответ оставляет слово текущим, ретраи
// проходят через автомат, но первой попыткой не считаются
func TestSession_RetryFlow(t *testing.T) {
	s := newDrillSession("s1", 1)
	s.BeginPresentation(5)

	first := s.Judge(5, false)
	assert.True(t, first)
	assert.Equal(t, StateJudgedIncorrect, s.State())

	s.Retry()
	assert.Equal(t, StateRetryAwaitingAnswer, s.State())

	// Снова мимо — и снова ретрай
	first = s.Judge(5, false)
	assert.False(t, first, "повторная попытка не должна идти в статистику")
	s.Retry()

	// Наконец верно: попытка все еще не первая, автомат в Idle
	first = s.Judge(5, true)
	assert.False(t, first)
	assert.Equal(t, StateIdle, s.State())
}

// TestSession_StalePosition — ответ не на текущее слово игнорируется
// статистикой и не двигает автомат
func TestSession_StalePosition(t *testing.T) {
	s := newDrillSession("s1", 1)
	s.BeginPresentation(2)

	first := s.Judge(7, true)
	assert.False(t, first)
	assert.Equal(t, StateAwaitingAnswer, s.State())

	// Ответ без показа вообще
	idle := newDrillSession("s2", 1)
	assert.False(t, idle.Judge(0, true))
	assert.Equal(t, StateIdle, idle.State())
}

// TestSession_RetryOnlyFromIncorrect — Retry вне Judged(incorrect) ничего
// не делает
func TestSession_RetryOnlyFromIncorrect(t *testing.T) {
	s := newDrillSession("s1", 1)
	s.Retry()
	assert.Equal(t, StateIdle, s.State())

	s.BeginPresentation(1)
	s.Retry()
	assert.Equal(t, StateAwaitingAnswer, s.State())
}

// TestSession_Abandon — бросить текущий показ и партию
func TestSession_Abandon(t *testing.T) {
	s := newDrillSession("s1", 1)
	s.BeginPresentation(4)
	s.StartBatch([]int{1, 2})

	s.Abandon()
	assert.Equal(t, StateIdle, s.State())
	_, ok := s.CurrentPosition()
	assert.False(t, ok)
	_, ok = s.CurrentBatchPosition()
	assert.False(t, ok)
}

// TestSession_BatchAdvance — переход по партии: пройденная позиция
// возвращается для пометки introduced, следующая — для показа
func TestSession_BatchAdvance(t *testing.T) {
	s := newDrillSession("s1", 1)
	s.StartBatch([]int{4, 9, 2})

	pos, ok := s.CurrentBatchPosition()
	require.True(t, ok)
	assert.Equal(t, 4, pos)

	passed, next, hasNext, ok := s.AdvanceBatch()
	require.True(t, ok)
	assert.Equal(t, 4, passed)
	assert.Equal(t, 9, next)
	assert.True(t, hasNext)

	passed, next, hasNext, ok = s.AdvanceBatch()
	require.True(t, ok)
	assert.Equal(t, 9, passed)
	assert.Equal(t, 2, next)
	assert.True(t, hasNext)

	// Последнее слово партии: пройдено, следующего нет
	passed, _, hasNext, ok = s.AdvanceBatch()
	require.True(t, ok)
	assert.Equal(t, 2, passed)
	assert.False(t, hasNext)

	// Партия исчерпана
	_, _, _, ok = s.AdvanceBatch()
	assert.False(t, ok)
	_, ok = s.CurrentBatchPosition()
	assert.False(t, ok)
}

// TestSessionStore_GetOrCreate — пустой или чужой ID рождает новую сессию,
// известный ID той же коллекции возвращает существующую
func TestSessionStore_GetOrCreate(t *testing.T) {
	st := NewSessionStore()

	s1 := st.GetOrCreate("", 1)
	require.NotEmpty(t, s1.ID)

	same := st.GetOrCreate(s1.ID, 1)
	assert.Same(t, s1, same)

	// Тот же ID, но другая коллекция — новая сессия со свежим ID,
	// прежняя остается нетронутой под своим идентификатором
	other := st.GetOrCreate(s1.ID, 2)
	assert.NotSame(t, s1, other)
	assert.NotEqual(t, s1.ID, other.ID)
	assert.Equal(t, uint(2), other.CollectionID)
	kept, ok := st.Get(s1.ID)
	require.True(t, ok)
	assert.Same(t, s1, kept)

	// Неизвестный ID сохраняется за новой сессией
	named := st.GetOrCreate("client-chosen", 1)
	assert.Equal(t, "client-chosen", named.ID)
	got, ok := st.Get("client-chosen")
	require.True(t, ok)
	assert.Same(t, named, got)
}

// TestSessionStore_PruneIdle — неактивные сессии вычищаются, активные живут
func TestSessionStore_PruneIdle(t *testing.T) {
	st := NewSessionStore()

	stale := st.GetOrCreate("", 1)
	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-3 * time.Hour)
	stale.mu.Unlock()

	active := st.GetOrCreate("", 1)

	removed := st.PruneIdle(2 * time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := st.Get(stale.ID)
	assert.False(t, ok)
	_, ok = st.Get(active.ID)
	assert.True(t, ok)
}
