package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound is returned for unknown or expired dashboard sessions.
	ErrSessionNotFound = errors.New("purchase: session not found")
	// ErrSessionConflict is returned when the session was saved by another
	// request after it was loaded.
	ErrSessionConflict = errors.New("purchase: session changed concurrently")
)

// DefaultBoardIdleTTL bounds how long an unused board is kept in process.
const DefaultBoardIdleTTL = 12 * time.Hour

// DefaultMaxBoards caps the number of boards held in process.
const DefaultMaxBoards = 10000

// Session is the persisted dashboard state of one user.
type Session struct {
	ID        string    `json:"id"`
	Selection Selection `json:"selection"`
	View      View      `json:"view"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Revision counts saves. A save only succeeds when the stored revision
	// still equals the one the session was loaded with.
	Revision uint64 `json:"revision"`
}

// NewSession starts a dashboard session with the default view.
func NewSession(mode CompanyCodeMode) Session {
	return Session{
		ID:        uuid.NewString(),
		Selection: NewSelection(mode),
		View:      DefaultView(),
		UpdatedAt: time.Now().UTC(),
	}
}

// Reset clears the selection and restores the default view.
func (s Session) Reset() Session {
	s.Selection = s.Selection.Clear()
	s.View = DefaultView()
	return s
}

// SessionStore persists dashboard sessions. Save compares the stored revision
// with sess.Revision (a missing session counts as revision 0), returns
// ErrSessionConflict on mismatch and otherwise returns the stored session
// with the next revision.
type SessionStore interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, sess Session) (Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs a RedisSessionStore.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Get loads a session and refreshes its expiry.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	payload, err := s.client.GetEx(ctx, s.redisKey(id), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Save stores the session under WATCH so a concurrent save aborts this one.
func (s *RedisSessionStore) Save(ctx context.Context, sess Session) (Session, error) {
	key := s.redisKey(sess.ID)
	expected := sess.Revision
	sess.Revision++
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedRevision(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return Session{}, ErrSessionConflict
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func storedRevision(ctx context.Context, tx *redis.Tx, key string) (uint64, error) {
	payload, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var stored struct {
		Revision uint64 `json:"revision"`
	}
	if err := json.Unmarshal(payload, &stored); err != nil {
		return 0, err
	}
	return stored.Revision, nil
}

// Delete removes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisSessionStore) redisKey(id string) string {
	return "purchase:session:" + id
}

// MemorySessionStore keeps sessions in process. It serves tests and runs
// without Redis.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore constructs an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.ID].Revision != sess.Revision {
		return Session{}, ErrSessionConflict
	}
	sess.Revision++
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Boards holds the in-process Board of every session. Boards unused for the
// idle TTL are swept, and the least recently used one is evicted when the
// registry is full.
type Boards struct {
	mu        sync.Mutex
	boards    map[string]*boardEntry
	idle      time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

type boardEntry struct {
	board    *Board
	lastUsed time.Time
}

// NewBoards constructs an empty registry. A non-positive idle TTL uses
// DefaultBoardIdleTTL.
func NewBoards(idle time.Duration) *Boards {
	if idle <= 0 {
		idle = DefaultBoardIdleTTL
	}
	return &Boards{
		boards: make(map[string]*boardEntry),
		idle:   idle,
		max:    DefaultMaxBoards,
		now:    time.Now,
	}
}

// For returns the board of a session, creating it on first use.
func (b *Boards) For(sessionID string) *Board {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.sweepLocked(now)
	if entry, ok := b.boards[sessionID]; ok {
		entry.lastUsed = now
		return entry.board
	}
	if len(b.boards) >= b.max {
		b.evictOldestLocked()
	}
	board := NewBoard()
	b.boards[sessionID] = &boardEntry{board: board, lastUsed: now}
	return board
}

// Peek returns the board of a session without creating one.
func (b *Boards) Peek(sessionID string) (*Board, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.boards[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = b.now()
	return entry.board, true
}

// Drop forgets the board of a session.
func (b *Boards) Drop(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.boards, sessionID)
}

// Len reports how many boards are held.
func (b *Boards) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.boards)
}

func (b *Boards) sweepLocked(now time.Time) {
	if now.Sub(b.lastSweep) < b.idle/4 {
		return
	}
	b.lastSweep = now
	for id, entry := range b.boards {
		if now.Sub(entry.lastUsed) >= b.idle {
			delete(b.boards, id)
		}
	}
}

func (b *Boards) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range b.boards {
		if oldestID == "" || entry.lastUsed.Before(oldest) {
			oldestID, oldest = id, entry.lastUsed
		}
	}
	delete(b.boards, oldestID)
}
