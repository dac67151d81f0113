package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ====================================================================
// Сериализация записи в соединение
// ====================================================================

// TestWSWriter_SerializesConcurrentWrites — ответы и пинги пишутся из разных
// горутин; без сериализации gorilla/websocket падает с паникой
// "concurrent write to websocket connection"
func TestWSWriter_SerializesConcurrentWrites(t *testing.T) {
	const writers = 8
	const perWriter = 25

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		writer := &wsWriter{conn: conn}
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWriter; j++ {
					assert.NoError(t, writer.WriteJSON(&wsReply{Type: "question"}))
					assert.NoError(t, writer.Ping())
				}
			}()
		}
		wg.Wait()
		writer.WriteJSON(&wsReply{Type: "done"})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Сервер не читает из соединения, поэтому автоматические pong-ответы
	// скапливаются в его буфере и при закрытии дают RST (broken pipe).
	conn.SetPingHandler(func(string) error { return nil })

	received := 0
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var reply wsReply
		require.NoError(t, conn.ReadJSON(&reply))
		if reply.Type == "done" {
			break
		}
		assert.Equal(t, "question", reply.Type)
		received++
	}
	assert.Equal(t, writers*perWriter, received)
}
