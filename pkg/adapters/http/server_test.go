package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/stories"
	api "github.com/aretw0/branchtale/pkg/adapters/http"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/aretw0/branchtale/pkg/runner"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, loader ports.StoryLoader, opts ...api.Option) (*httptest.Server, *memory.Store) {
	t.Helper()
	if loader == nil {
		loader = stories.CaveLoader()
	}
	eng, err := branchtale.New(context.Background(), "", branchtale.WithLoader(loader))
	require.NoError(t, err)

	store := memory.NewStore()
	opts = append([]api.Option{api.WithStore(store)}, opts...)
	srv := httptest.NewServer(api.NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_CaveFlow(t *testing.T) {
	srv, store := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[api.StepResponse](t, resp)
	require.NotEmpty(t, started.Session.ID)
	assert.Equal(t, "entrance", started.Result.NodeID)
	assert.Contains(t, started.Result.Text, "A) Enter the cave.")

	inputURL := srv.URL + "/sessions/" + started.Session.ID + "/input"
	for _, in := range []string{"a", " A ", "a"} {
		resp = postJSON(t, inputURL, api.StepRequest{Input: in})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	final := decode[api.StepResponse](t, resp)
	assert.Equal(t, domain.OutcomeWin, final.Result.Outcome)
	assert.Equal(t, domain.StatusTerminated, final.Session.Status)
	assert.Equal(t, []string{"entrance", "collapse", "crystal", "emerge"}, final.Session.History)

	t.Run("Finished Session Rejects Input", func(t *testing.T) {
		resp := postJSON(t, inputURL, api.StepRequest{Input: "A"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Finished Session Is Archived", func(t *testing.T) {
		tr, err := store.Load(context.Background(), started.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeWin, tr.Outcome)

		resp, err := http.Get(srv.URL + "/sessions/" + started.Session.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		sess := decode[domain.Session](t, resp)
		assert.Equal(t, domain.StatusTerminated, sess.Status)
	})

	t.Run("Graph Overlay", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/story/graph?session_id=" + started.Session.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "graph TD")
		assert.Contains(t, string(body), "classDef visited")
	})
}

func TestServer_InvalidInputIsAnOutcome(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	started := decode[api.StepResponse](t, postJSON(t, srv.URL+"/sessions", nil))
	resp := postJSON(t, srv.URL+"/sessions/"+started.Session.ID+"/input", api.StepRequest{Input: "C"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[api.StepResponse](t, resp)
	assert.Equal(t, domain.OutcomeInvalidInput, res.Result.Outcome)
	assert.Contains(t, res.Result.Text, "hitting your head on a rock")
}

func TestServer_BoundaryInputIsAnOutcome(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name  string
		input string
	}{
		{"Oversized", strings.Repeat("B", 10000)},
		{"Escape Prefix", "\x1bB"},
		{"Whitespace Only", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := decode[api.StepResponse](t, postJSON(t, srv.URL+"/sessions", nil))
			resp := postJSON(t, srv.URL+"/sessions/"+started.Session.ID+"/input", api.StepRequest{Input: tt.input})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			res := decode[api.StepResponse](t, resp)
			assert.Equal(t, domain.OutcomeInvalidInput, res.Result.Outcome)
			assert.Equal(t, domain.StatusTerminated, res.Session.Status)
		})
	}
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	t.Run("Unknown Session", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/sessions/nope/input", api.StepRequest{Input: "A"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decode[map[string]string](t, resp)
		assert.NotEmpty(t, body["error"])
	})

	t.Run("Malformed Body", func(t *testing.T) {
		started := decode[api.StepResponse](t, postJSON(t, srv.URL+"/sessions", nil))
		resp, err := http.Post(srv.URL+"/sessions/"+started.Session.ID+"/input", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Abandon", func(t *testing.T) {
		started := decode[api.StepResponse](t, postJSON(t, srv.URL+"/sessions", nil))
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+started.Session.ID, nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/sessions/" + started.Session.ID)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Info(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	info := decode[map[string]any](t, resp)
	assert.Equal(t, branchtale.Version, info["version"])
	assert.Equal(t, "cave-of-whispers", info["story"])
	assert.NotEqual(t, "unknown", info["api_version"])
}

func TestServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("branchtale_up 1\n"))
	})
	srv, _ := newTestServer(t, nil, api.WithMetrics(metrics))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "branchtale_up 1\n", string(body))
}

func TestGetSwagger(t *testing.T) {
	doc, err := api.GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/input"))
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	require.Equal(t, "ping", readEvent(t, r).name)
	return r
}

func TestServer_SessionEvents(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	started := decode[api.StepResponse](t, postJSON(t, srv.URL+"/sessions", nil))
	stream := openStream(t, srv.URL+"/sessions/"+started.Session.ID+"/events")

	postJSON(t, srv.URL+"/sessions/"+started.Session.ID+"/input", api.StepRequest{Input: "b"})

	ev := readEvent(t, stream)
	require.Equal(t, "diff", ev.name)
	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(ev.data), &diff))
	assert.Equal(t, []string{"B"}, diff.Inputs)
	require.NotNil(t, diff.Result)
	assert.Equal(t, domain.OutcomeSurvive, diff.Result.Outcome)

	assert.Equal(t, "end", readEvent(t, stream).name)
}

func TestServer_ReloadEvents(t *testing.T) {
	loader := memory.NewLoader(stories.Cave())
	srv, _ := newTestServer(t, loader)

	stream := openStream(t, srv.URL+"/events")

	broken := stories.Cave()
	broken.StartID = "nowhere"
	loader.Set(broken)
	assert.Equal(t, "reload_failed", readEvent(t, stream).name)

	renamed := stories.Cave()
	renamed.ID = "cave-v2"
	loader.Set(renamed)
	ev := readEvent(t, stream)
	assert.Equal(t, "reload", ev.name)
	assert.Equal(t, "cave-v2", ev.data)
}

func TestServer_ReloadEventsUnsupported(t *testing.T) {
	eng, err := branchtale.New(context.Background(), "testdata/tiny.yaml")
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewHandler(eng))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestServer_Play(t *testing.T) {
	srv, store := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/play"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var ev runner.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, runner.EventPrompt, ev.Type)
	assert.Equal(t, "entrance", ev.NodeID)

	require.NoError(t, conn.WriteJSON(map[string]string{"input": "a"}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "collapse", ev.NodeID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("b")))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, runner.EventOutcome, ev.Type)
	assert.Equal(t, domain.OutcomeLoss, ev.Outcome)

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, string(domain.OutcomeLoss), closeErr.Text)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
