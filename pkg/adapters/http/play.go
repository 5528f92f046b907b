package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/runner"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundMessage is a player line. Plain text frames are accepted as well.
type inboundMessage struct {
	Input string `json:"input"`
}

// Play handles GET /play: one runner per websocket connection.
// A dropped connection reads as absent input, so the session still ends and is archived.
func (s *Server) Play(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Play: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	h := newWSHandler(conn)
	defer h.stop()
	rn := runner.NewRunner(
		runner.WithEngine(s.Engine),
		runner.WithInputHandler(h),
		runner.WithStore(s.store),
		runner.WithTimeout(s.turnTimeout),
		runner.WithLogger(s.logger),
	)

	sess, err := rn.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Error("Play: session failed", "err", err)
		return
	}
	var outcome domain.OutcomeTag
	if sess.Result != nil {
		outcome = sess.Result.Outcome
	}
	s.logger.Info("Play: session finished", "session_id", sess.ID, "outcome", outcome)

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(outcome)), deadline())
}

// wsHandler adapts a websocket connection to runner.IOHandler.
type wsHandler struct {
	conn  *websocket.Conn
	lines chan string
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func newWSHandler(conn *websocket.Conn) *wsHandler {
	h := &wsHandler{conn: conn, lines: make(chan string), done: make(chan struct{})}
	go h.pump()
	return h
}

func (h *wsHandler) pump() {
	defer close(h.lines)
	for {
		_, data, err := h.conn.ReadMessage()
		if err != nil {
			h.mu.Lock()
			h.closed = true
			h.mu.Unlock()
			return
		}
		select {
		case h.lines <- decodeLine(data):
		case <-h.done:
			return
		}
	}
}

func (h *wsHandler) stop() {
	close(h.done)
}

func decodeLine(data []byte) string {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err == nil {
		return msg.Input
	}
	return strings.TrimRight(string(data), "\r\n")
}

func (h *wsHandler) Input(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-h.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (h *wsHandler) Output(ctx context.Context, res domain.StepResult) error {
	ev := runner.Event{Type: runner.EventPrompt, NodeID: res.NodeID, Key: res.Key, Text: res.Text}
	if res.IsTerminal() {
		ev.Type = runner.EventOutcome
		ev.Outcome = res.Outcome
	}
	return h.send(ev)
}

func (h *wsHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.send(runner.Event{Type: runner.EventSystem, Text: msg})
}

// send drops events once the peer is gone.
func (h *wsHandler) send(ev runner.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	return h.conn.WriteJSON(ev)
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
