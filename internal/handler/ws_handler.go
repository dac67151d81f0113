package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
	"github.com/yourusername/vocab-api/internal/service"
)

// WSHandler обрабатывает WebSocket-соединения живого цикла тренировки.
// Одно соединение — одна сессия: клиент шлет команды, сервер отвечает
// теми же структурами, что и REST-эндпоинты.
type WSHandler struct {
	drillService *service.DrillService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(drillService *service.DrillService) *WSHandler {
	return &WSHandler{drillService: drillService}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Инструмент для одного пользователя, protections CORS-уровня не нужны
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// wsCommand — входящее сообщение клиента
type wsCommand struct {
	Type     string `json:"type"` // draw | answer | retry | abandon | introduce | advance
	Position *int   `json:"position,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Mode     string `json:"mode,omitempty"` // "all" снимает фильтр по introduced при draw
}

// wsReply — исходящее сообщение сервера
type wsReply struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Hint  string      `json:"hint,omitempty"`
}

// wsWriter сериализует запись в соединение: gorilla/websocket допускает
// не больше одного писателя, а ответы и пинги идут из разных горутин.
type wsWriter struct {
	mu   sync.Mutex
	conn *gorillaws.Conn
}

func (w *wsWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(gorillaws.PingMessage, nil)
}

// HandleConnection апгрейдит соединение и крутит цикл команда-ответ
func (h *WSHandler) HandleConnection(c *gin.Context) {
	collectionID := c.MustGet("collectionID").(uint)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	writer := &wsWriter{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(writer, done)

	// Сессия живет ровно столько, сколько соединение
	sessionID := ""
	ctx := c.Request.Context()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				log.Printf("[WSHandler] Соединение закрыто с ошибкой: %v", err)
			}
			if sessionID != "" {
				h.drillService.AbandonCurrent(sessionID)
			}
			return
		}

		reply := h.dispatch(ctx, collectionID, &sessionID, &cmd)
		if err := writer.WriteJSON(reply); err != nil {
			log.Printf("[WSHandler] Ошибка записи ответа: %v", err)
			return
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, collectionID uint, sessionID *string, cmd *wsCommand) *wsReply {
	switch cmd.Type {
	case "draw":
		result, err := h.drillService.DrawNext(ctx, collectionID, *sessionID, cmd.Mode == "all")
		if err != nil {
			return h.errorReply(cmd.Type, err)
		}
		*sessionID = result.SessionID
		return &wsReply{Type: "question", Data: result}

	case "answer":
		if cmd.Position == nil {
			return &wsReply{Type: "error", Error: "position is required"}
		}
		result, err := h.drillService.SubmitAnswer(ctx, collectionID, *sessionID, *cmd.Position, cmd.Answer)
		if err != nil {
			return h.errorReply(cmd.Type, err)
		}
		return &wsReply{Type: "judgment", Data: result}

	case "retry":
		h.drillService.RetryCurrent(*sessionID)
		return &wsReply{Type: "retrying"}

	case "abandon":
		h.drillService.AbandonCurrent(*sessionID)
		return &wsReply{Type: "abandoned"}

	case "introduce":
		step, err := h.drillService.IntroduceBatch(ctx, collectionID, *sessionID)
		if err != nil {
			return h.errorReply(cmd.Type, err)
		}
		*sessionID = step.SessionID
		return &wsReply{Type: "introduction", Data: step}

	case "advance":
		step, err := h.drillService.AdvanceIntroduction(ctx, collectionID, *sessionID)
		if err != nil {
			return h.errorReply(cmd.Type, err)
		}
		return &wsReply{Type: "introduction", Data: step}

	default:
		return &wsReply{Type: "error", Error: "unknown command type"}
	}
}

func (h *WSHandler) errorReply(cmdType string, err error) *wsReply {
	reply := &wsReply{Type: "error", Error: err.Error()}
	if errors.Is(err, apperrors.ErrEmptyCollection) {
		reply.Hint = "introduce a batch of new words first"
		return reply
	}
	if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
		log.Printf("[WSHandler] Ошибка команды %s: %v", cmdType, err)
	}
	return reply
}

func (h *WSHandler) pingLoop(writer *wsWriter, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := writer.Ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
