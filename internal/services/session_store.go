package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Selection is the last choice a session made in each view.
type Selection struct {
	Date    *time.Time `json:"date,omitempty"`
	Line    string     `json:"line,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Station string     `json:"station,omitempty"`
}

// Session is one user's isolated view on the shared data set. Results are
// memoized per session and keyed by the data set fingerprint, so a reload
// of the file never serves stale results.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu        sync.Mutex
	selection Selection
	ranking   *memo[domain.LineRanking]
	station   *memo[domain.StationReport]
}

type memo[T any] struct {
	key   string
	value T
}

// Selection returns a copy of the session's current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection
	if sel.Date != nil {
		d := *sel.Date
		sel.Date = &d
	}
	return sel
}

func (s *Session) selectDayLine(date time.Time, line string, limit int) {
	s.mu.Lock()
	s.selection.Date = &date
	s.selection.Line = line
	s.selection.Limit = limit
	s.mu.Unlock()
}

func (s *Session) selectStation(station string) {
	s.mu.Lock()
	s.selection.Station = station
	s.mu.Unlock()
}

func (s *Session) cachedRanking(key string) (domain.LineRanking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ranking == nil || s.ranking.key != key {
		return domain.LineRanking{}, false
	}
	return s.ranking.value, true
}

func (s *Session) storeRanking(key string, r domain.LineRanking) {
	s.mu.Lock()
	s.ranking = &memo[domain.LineRanking]{key: key, value: r}
	s.mu.Unlock()
}

func (s *Session) cachedStation(key string) (domain.StationReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.station == nil || s.station.key != key {
		return domain.StationReport{}, false
	}
	return s.station.value, true
}

func (s *Session) storeStation(key string, r domain.StationReport) {
	s.mu.Lock()
	s.station = &memo[domain.StationReport]{key: key, value: r}
	s.mu.Unlock()
}

// SessionStore holds sessions in an LRU with a sliding expiration.
type SessionStore struct {
	cache   gcache.Cache
	ttl     time.Duration
	clock   gcache.Clock
	metrics *infrastructure.RidershipMetrics
	logger  *slog.Logger
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*sessionStoreSettings)

type sessionStoreSettings struct {
	clock   gcache.Clock
	metrics *infrastructure.RidershipMetrics
	logger  *slog.Logger
}

// WithSessionClock replaces the wall clock; tests pass gcache.NewFakeClock().
func WithSessionClock(clock gcache.Clock) SessionStoreOption {
	return func(s *sessionStoreSettings) { s.clock = clock }
}

// WithSessionMetrics records session counts on m.
func WithSessionMetrics(m *infrastructure.RidershipMetrics) SessionStoreOption {
	return func(s *sessionStoreSettings) { s.metrics = m }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionStoreOption {
	return func(s *sessionStoreSettings) { s.logger = logger }
}

// NewSessionStore creates a store bounded by cfg.MaxSessions entries, each
// expiring cfg.TTL after its last use.
func NewSessionStore(cfg config.SessionConfig, opts ...SessionStoreOption) *SessionStore {
	settings := sessionStoreSettings{clock: gcache.NewRealClock(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.logger == nil {
		settings.logger = slog.Default()
	}
	if settings.clock == nil {
		settings.clock = gcache.NewRealClock()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = config.DefaultMaxSessions
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultSessionTTL
	}

	store := &SessionStore{
		ttl:     cfg.TTL,
		clock:   settings.clock,
		metrics: settings.metrics,
		logger:  settings.logger.With(slog.String("component", "session_store")),
	}
	store.cache = gcache.New(cfg.MaxSessions).
		LRU().
		Expiration(cfg.TTL).
		Clock(settings.clock).
		EvictedFunc(func(key, _ interface{}) {
			store.metrics.RecordSessionClosed(context.Background())
			store.logger.Debug("session evicted", slog.Any("session_id", key))
		}).
		Build()
	return store
}

// Open creates a new session.
func (s *SessionStore) Open(ctx context.Context) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: s.clock.Now(),
	}
	// Set only fails for a nil key.
	_ = s.cache.Set(sess.ID, sess)
	s.metrics.RecordSessionOpened(ctx)
	s.logger.DebugContext(ctx, "session opened", slog.String("session_id", sess.ID))
	return sess
}

// Get returns the session and restarts its expiration.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	v, err := s.cache.Get(id)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	sess := v.(*Session)
	_ = s.cache.SetWithExpire(id, sess, s.ttl)
	return sess, nil
}

// Resolve returns the session named by id, opening a new one when id is
// empty. The boolean reports whether a session was created.
func (s *SessionStore) Resolve(ctx context.Context, id string) (*Session, bool, error) {
	if id == "" {
		return s.Open(ctx), true, nil
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return sess, false, nil
}

// Close removes the session. It reports whether the session existed.
func (s *SessionStore) Close(ctx context.Context, id string) bool {
	removed := s.cache.Remove(id)
	if removed {
		s.logger.DebugContext(ctx, "session closed", slog.String("session_id", id))
	}
	return removed
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.Len(true)
}
