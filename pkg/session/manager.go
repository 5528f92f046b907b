package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the narrative core the Manager drives.
type Engine interface {
	Start(ctx context.Context, story *domain.Story, sessionID string) (*domain.Session, domain.StepResult, error)
	Advance(ctx context.Context, sess *domain.Session, raw string) (domain.StepResult, error)
}

// StoryFunc returns the story new sessions start on.
type StoryFunc func() *domain.Story

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine Engine
	story  StoryFunc
	store  ports.TranscriptStore

	mu       sync.Mutex                            // Global lock for the maps below
	locks    map[string]*lockEntry                 // Per-session locks
	sessions map[string]*domain.Session            // Active sessions
	orphans  map[string]*domain.Session            // Finished sessions the store failed to archive
	subs     map[string][]chan *domain.SessionDiff // Diff subscribers per session

	newID  func() string
	logger *slog.Logger
}

var _ ports.SessionService = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithStore archives finished sessions to store (default: in-memory).
func WithStore(store ports.TranscriptStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator overrides session ID generation (default: UUIDv7).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new Session Manager.
func NewManager(engine Engine, story StoryFunc, opts ...Option) *Manager {
	m := &Manager{
		engine:   engine,
		story:    story,
		store:    memory.NewStore(),
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*domain.Session),
		orphans:  make(map[string]*domain.Session),
		subs:     make(map[string][]chan *domain.SessionDiff),
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return fn(ctx)
}

// Story returns the story new sessions will be started on.
func (m *Manager) Story() *domain.Story {
	return m.story()
}

// Store returns the transcript archive.
func (m *Manager) Store() ports.TranscriptStore {
	return m.store
}

// Start opens a new session on the current story.
func (m *Manager) Start(ctx context.Context) (*domain.Session, domain.StepResult, error) {
	story := m.story()
	if story == nil {
		return nil, domain.StepResult{}, fmt.Errorf("no story loaded")
	}

	id := m.newID()
	var (
		snap *domain.Session
		res  domain.StepResult
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		sess, r, err := m.engine.Start(ctx, story, id)
		if err != nil {
			return err
		}
		res = r
		snap = sess.Snapshot()

		if sess.Done() {
			m.archive(ctx, sess)
			return nil
		}

		m.mu.Lock()
		m.sessions[id] = sess
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, domain.StepResult{}, err
	}

	m.logger.Debug("session opened", "session_id", id, "story", story.ID)
	return snap, res, nil
}

// Step applies one raw input to an active session.
func (m *Manager) Step(ctx context.Context, sessionID, raw string) (*domain.Session, domain.StepResult, error) {
	var (
		snap *domain.Session
		res  domain.StepResult
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		sess, ok := m.sessions[sessionID]
		m.mu.Unlock()

		if !ok {
			return m.missing(ctx, sessionID)
		}

		prev := sess.Snapshot()
		r, err := m.engine.Advance(ctx, sess, raw)
		if err != nil {
			return err
		}
		res = r
		snap = sess.Snapshot()

		m.publish(sessionID, domain.Diff(prev, snap))

		if sess.Done() {
			m.archive(ctx, sess)
		}
		return nil
	})
	if err != nil {
		return nil, domain.StepResult{}, err
	}
	return snap, res, nil
}

// Get returns a snapshot of an active session, or the archived record of a finished one.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if ok {
		var snap *domain.Session
		_ = m.WithLock(ctx, sessionID, func(context.Context) error {
			snap = sess.Snapshot()
			return nil
		})
		return snap, nil
	}
	if orphan, ok := m.orphan(sessionID); ok {
		return orphan.Snapshot(), nil
	}

	tr, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrTranscriptNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	return FromTranscript(tr), nil
}

// Active returns the IDs of sessions still in progress.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Abandon drops an active session without archiving it.
func (m *Manager) Abandon(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		if _, ok := m.sessions[sessionID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		delete(m.sessions, sessionID)
		m.closeSubs(sessionID)
		return nil
	})
}

// Subscribe streams incremental updates of an active session.
// The channel is closed when the session finishes, is abandoned, or cancel is called.
func (m *Manager) Subscribe(sessionID string) (<-chan *domain.SessionDiff, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	ch := make(chan *domain.SessionDiff, 16)
	m.subs[sessionID] = append(m.subs[sessionID], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			list := m.subs[sessionID]
			for i, c := range list {
				if c == ch {
					m.subs[sessionID] = append(list[:i], list[i+1:]...)
					close(ch)
					break
				}
			}
			if len(m.subs[sessionID]) == 0 {
				delete(m.subs, sessionID)
			}
		})
	}
	return ch, cancel, nil
}

func (m *Manager) publish(sessionID string, diff *domain.SessionDiff) {
	if diff == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[sessionID] {
		select {
		case ch <- diff:
		default:
			m.logger.Warn("dropping session update for slow subscriber", "session_id", sessionID)
		}
	}
}

// closeSubs must be called with m.mu held.
func (m *Manager) closeSubs(sessionID string) {
	for _, ch := range m.subs[sessionID] {
		close(ch)
	}
	delete(m.subs, sessionID)
}

// archive saves the transcript and retires the session. Must be called with the session lock held.
// A session the store rejects stays known as terminated so later steps still get a conflict.
func (m *Manager) archive(ctx context.Context, sess *domain.Session) {
	saved := true
	if tr := domain.NewTranscript(sess); tr != nil {
		if err := m.store.Save(ctx, tr); err != nil {
			m.logger.Error("failed to archive transcript", "session_id", sess.ID, "err", err)
			saved = false
		}
	}

	m.mu.Lock()
	delete(m.sessions, sess.ID)
	if !saved {
		m.orphans[sess.ID] = sess
	}
	m.closeSubs(sess.ID)
	m.mu.Unlock()
}

// orphan returns a finished session that never reached the store.
func (m *Manager) orphan(sessionID string) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.orphans[sessionID]
	return sess, ok
}

func (m *Manager) missing(ctx context.Context, sessionID string) error {
	if _, ok := m.orphan(sessionID); ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionAlreadyTerminal, sessionID)
	}
	_, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", domain.ErrSessionAlreadyTerminal, sessionID)
	case errors.Is(err, domain.ErrTranscriptNotFound):
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	default:
		return fmt.Errorf("failed to check archive: %w", err)
	}
}

// FromTranscript rebuilds a read-only, terminated session view from an archived transcript.
func FromTranscript(tr *domain.Transcript) *domain.Session {
	nodeID := ""
	if len(tr.History) > 0 {
		nodeID = tr.History[len(tr.History)-1]
	}
	key := ""
	if len(tr.Inputs) > 0 {
		key = tr.Inputs[len(tr.Inputs)-1]
	}
	res := domain.Terminal(nodeID, key, tr.Outcome, tr.Text)
	return &domain.Session{
		ID:            tr.SessionID,
		StoryID:       tr.StoryID,
		CurrentNodeID: nodeID,
		Status:        domain.StatusTerminated,
		Inputs:        append([]string(nil), tr.Inputs...),
		History:       append([]string(nil), tr.History...),
		Result:        &res,
		StartedAt:     tr.StartedAt,
		EndedAt:       tr.EndedAt,
	}
}
