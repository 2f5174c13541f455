package chat

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	chatmodel "github.com/champs-software/support-chat/internal/model/chat"
	"github.com/champs-software/support-chat/internal/service/assistant"
	"github.com/champs-software/support-chat/internal/service/corpus"
)

const storePurgeInterval = 10 * time.Minute

// Session is the composite per-conversation record. Its mutex serializes all
// work for one session id: the orchestrator holds it for the full request, so
// the provisioned check, remote appends and history writes never race.
type Session struct {
	mu sync.Mutex

	ID        string
	Corpus    corpus.Name
	Agent     assistant.AgentID
	Thread    assistant.ThreadID
	History   []chatmodel.Message
	CreatedAt time.Time

	// provisioned flips once both remote handles exist. Guarded by mu.
	provisioned bool

	// discarded marks a record rolled back out of the store; waiters must
	// re-acquire instead of reusing it. Guarded by mu.
	discarded bool
}

// Store maps session ids to live session records. Entries expire after the
// configured idle TTL; a TTL of zero disables expiry entirely.
type Store struct {
	cache *gocache.Cache
}

// NewStore builds a session store. Expired entries are purged periodically and
// handed to the eviction callback, if one is registered.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		return &Store{cache: gocache.New(gocache.NoExpiration, 0)}
	}
	return &Store{cache: gocache.New(ttl, storePurgeInterval)}
}

// OnEvicted registers a callback invoked whenever a session leaves the store,
// whether by TTL expiry or explicit removal.
func (s *Store) OnEvicted(fn func(*Session)) {
	s.cache.OnEvicted(func(_ string, v interface{}) {
		fn(v.(*Session))
	})
}

// Acquire returns the session for id, creating an empty record when none
// exists. Get-or-create is atomic: concurrent callers with the same fresh id
// always share one record. The TTL is refreshed on every acquire.
func (s *Store) Acquire(id string) *Session {
	for {
		if v, ok := s.cache.Get(id); ok {
			sess := v.(*Session)
			s.cache.Set(id, sess, gocache.DefaultExpiration)
			return sess
		}

		sess := &Session{ID: id, CreatedAt: time.Now().UTC()}
		if err := s.cache.Add(id, sess, gocache.DefaultExpiration); err == nil {
			return sess
		}
		// lost the insert race, retry the lookup
	}
}

// Get returns the session for id without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Remove deletes all state for id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.cache.Delete(id)
}

// Count reports the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
