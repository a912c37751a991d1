package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
)

const defaultShardCount = 32

// Snapshot is a copy of one session record. Mutating it never affects the
// store.
type Snapshot struct {
	ID           string
	Cart         domain.Cart
	Stage        domain.Stage
	LastActivity time.Time
}

type record struct {
	cart         domain.Cart
	stage        domain.Stage
	lastActivity time.Time
}

func (r *record) snapshot(id string) Snapshot {
	return Snapshot{
		ID:           id,
		Cart:         r.cart.Clone(),
		Stage:        r.stage,
		LastActivity: r.lastActivity,
	}
}

// opLock serialises whole read-modify-write operations on one session.
type opLock struct {
	mu   sync.Mutex
	refs int
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*record
	locks    map[string]*opLock
}

// Store is the in-memory session table. Each shard guards its sessions with
// one mutex that every read, write, touch and eviction takes, so individual
// calls are atomic. Callers that read, do I/O, then write hold Lock(id) for
// the whole sequence.
type Store struct {
	shards []*shard
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for last-activity stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithShards overrides the number of shards.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		shards: newShards(defaultShardCount),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{
			sessions: make(map[string]*record),
			locks:    make(map[string]*opLock),
		}
	}
	return shards
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Lock acquires the operation lock for id and returns its release function.
// The session does not need to exist.
func (s *Store) Lock(id string) (unlock func()) {
	sh := s.shardFor(id)

	sh.mu.Lock()
	l, ok := sh.locks[id]
	if !ok {
		l = &opLock{}
		sh.locks[id] = l
	}
	l.refs++
	sh.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			sh.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(sh.locks, id)
			}
			sh.mu.Unlock()
		})
	}
}

// Get returns a copy of the session, or false if it does not exist.
func (s *Store) Get(id string) (Snapshot, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(id), true
}

// Create ensures the session exists in the Building stage and touches it.
// An existing cart is kept.
func (s *Store) Create(id string) Snapshot {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	r := s.getOrCreate(sh, id)
	r.stage = domain.StageBuilding
	r.lastActivity = s.now()
	return r.snapshot(id)
}

// Upsert merge-adds lines into the session cart, creating the session if
// absent, and touches it. If any line would exceed domain.MaxLineQuantity
// the cart is left unchanged and a MalformedInput error is returned.
func (s *Store) Upsert(id string, lines []domain.CartLine) (Snapshot, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	var merged domain.Cart
	if r, ok := sh.sessions[id]; ok {
		merged = r.cart.Clone()
	}
	for _, l := range lines {
		if err := merged.Add(l.Name, l.Quantity); err != nil {
			return Snapshot{}, err
		}
	}

	r := s.getOrCreate(sh, id)
	r.cart = merged
	r.lastActivity = s.now()
	return r.snapshot(id), nil
}

// RemoveItem deletes name from the session cart. It reports whether the item
// was removed and whether the session exists.
func (s *Store) RemoveItem(id, name string) (removed, found bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.sessions[id]
	if !ok {
		return false, false
	}
	removed = r.cart.Remove(name)
	r.lastActivity = s.now()
	return removed, true
}

// SetStage moves the session to stage and touches it. It reports whether the
// session exists.
func (s *Store) SetStage(id string, stage domain.Stage) bool {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.sessions[id]
	if !ok {
		return false
	}
	r.stage = stage
	r.lastActivity = s.now()
	return true
}

// Touch records the current time as the session's last activity.
func (s *Store) Touch(id string) bool {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.sessions[id]
	if !ok {
		return false
	}
	r.lastActivity = s.now()
	return true
}

// Clear deletes the session. It reports whether the session existed.
func (s *Store) Clear(id string) bool {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[id]; !ok {
		return false
	}
	delete(sh.sessions, id)
	activeSessions.Dec()
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	var n int
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}

// EvictIdle deletes sessions whose last activity is before cutoff. The
// timestamp is re-read under the shard lock at delete time, and sessions
// whose operation lock is held are skipped. It returns the number evicted.
func (s *Store) EvictIdle(cutoff time.Time) int {
	var evicted int
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, r := range sh.sessions {
			if _, busy := sh.locks[id]; busy {
				continue
			}
			if r.lastActivity.Before(cutoff) {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	if evicted > 0 {
		activeSessions.Sub(float64(evicted))
		sessionsEvicted.Add(float64(evicted))
	}
	return evicted
}

func (s *Store) getOrCreate(sh *shard, id string) *record {
	r, ok := sh.sessions[id]
	if !ok {
		r = &record{stage: domain.StageBuilding}
		sh.sessions[id] = r
		activeSessions.Inc()
	}
	return r
}
