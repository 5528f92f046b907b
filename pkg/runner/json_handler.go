package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/branchtale/pkg/domain"
)

// Event types emitted by JSONHandler.
const (
	EventPrompt  = "prompt"
	EventOutcome = "outcome"
	EventSystem  = "system"
)

// Event is one NDJSON line written by JSONHandler.
type Event struct {
	Type    string            `json:"type"`
	NodeID  string            `json:"node_id,omitempty"`
	Key     string            `json:"key,omitempty"`
	Text    string            `json:"text"`
	Outcome domain.OutcomeTag `json:"outcome,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each input line is either a JSON string ("A") or raw text (A).
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, res domain.StepResult) error {
	ev := Event{
		Type:   EventPrompt,
		NodeID: res.NodeID,
		Key:    res.Key,
		Text:   res.Text,
	}
	if res.IsTerminal() {
		ev.Type = EventOutcome
		ev.Outcome = res.Outcome
	}
	return h.emit(ev)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Event{Type: EventSystem, Text: msg})
}

func (h *JSONHandler) emit(ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(ev)
}

// Input reads one line. It does not honour ctx cancellation while blocked;
// use TextHandler when per-turn timeouts matter.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}

	text = strings.TrimSpace(text)

	// Try to unquote if it's a JSON string
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	// Fallback: return raw text (e.g. if they just sent plain text)
	return text, nil
}
