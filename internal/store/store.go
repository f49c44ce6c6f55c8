// Package store owns the player's character collection. Every mutation is
// written through to durable storage and announced to observers, and the
// selected character is mirrored into the host session.
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/lostbyte/mainhero/internal/codec"
	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/models"
	"github.com/lostbyte/mainhero/internal/viewport"
)

var (
	ErrClosed            = errors.New("store closed")
	ErrInvalidCharacter  = errors.New("character id is required")
	ErrCharacterNotFound = errors.New("character not found")
)

const writeQueueSize = 64

type writeJob struct {
	data models.PlayerData
	ack  chan struct{}
}

// Store is the single owner of the collection. Reads return deep copies.
type Store struct {
	codec   *codec.Codec
	session host.Session

	mu     sync.RWMutex
	data   models.PlayerData
	closed bool

	// commits is stamped under mu; delivered trails it under notifyMu so
	// observers see mutations in commit order without holding mu
	commits   uint64
	notifyMu  sync.Mutex
	notifyC   *sync.Cond
	delivered uint64

	obsMu     sync.Mutex
	observers map[int]func(models.PlayerData)
	nextObs   int

	selectSeq  atomic.Uint64
	identityMu sync.Mutex

	writes    chan writeJob
	done      chan struct{}
	closeOnce sync.Once
}

// New loads the collection through c and starts the background writer.
// session may be nil, in which case nothing is mirrored to a host.
func New(c *codec.Codec, session host.Session) *Store {
	s := &Store{
		codec:     c,
		session:   session,
		data:      c.Load(),
		observers: make(map[int]func(models.PlayerData)),
		writes:    make(chan writeJob, writeQueueSize),
		done:      make(chan struct{}),
	}
	s.notifyC = sync.NewCond(&s.notifyMu)
	go s.persist()

	// A freshly generated default must survive a restart even if nothing is changed.
	s.mu.Lock()
	s.enqueueLocked(s.data.Clone())
	s.mu.Unlock()

	logger.Info("Character store ready",
		"characters", s.data.Characters.Len(),
		"selected_character_id", s.data.SelectedCharacterID)
	return s
}

// Data returns a copy of the whole collection
func (s *Store) Data() models.PlayerData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// CurrentCharacter returns the selected character, if it exists
func (s *Store) CurrentCharacter() (models.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.Current()
	if !ok {
		return models.Character{}, false
	}
	return c.Clone(), true
}

// CurrentCharacterID returns the recorded selection, which may be dangling
func (s *Store) CurrentCharacterID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.SelectedCharacterID
}

// Subscribe registers fn to receive a snapshot after every mutation. fn runs
// synchronously on the mutating goroutine. It may read the store but must
// not mutate it.
// The returned function removes the observer.
func (s *Store) Subscribe(fn func(models.PlayerData)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// AddCharacter appends a freshly generated character. The selection is unchanged.
func (s *Store) AddCharacter() models.Character {
	c := codec.CreateCharacter()
	s.mutate(func(d *models.PlayerData) bool {
		d.Characters.Set(c.Clone())
		return true
	})
	logger.Debug("Character added", "character_id", c.ID)
	return c
}

// SelectCharacter records id as the selection without validating it. For a
// non-empty id the host camera is softly focused on the matching scene item,
// then a PLAYER's on-table identity takes the character's name and color.
// Host failures are logged and never returned. When selections overlap only
// the latest one pushes an identity.
func (s *Store) SelectCharacter(ctx context.Context, id string) {
	seq := s.selectSeq.Add(1)
	s.mutate(func(d *models.PlayerData) bool {
		d.SelectedCharacterID = id
		return true
	})
	logger.Debug("Character selected", "character_id", id)

	if id == "" || s.session == nil {
		return
	}

	if err := viewport.Focus(ctx, s.session, id, false); err != nil {
		logger.Warn("Failed to focus selected character", "character_id", id, "error", err)
	}

	role, err := s.session.Role(ctx)
	if err != nil {
		logger.Warn("Failed to read player role", "error", err)
		return
	}
	if role != host.RolePlayer {
		return
	}

	s.pushIdentity(ctx, id, seq)
}

// pushIdentity copies the character's name and color to the host. Pushes are
// serialized and a superseded selection pushes nothing, so the host never
// mixes the name of one character with the color of another.
func (s *Store) pushIdentity(ctx context.Context, id string, seq uint64) {
	s.identityMu.Lock()
	defer s.identityMu.Unlock()

	if s.selectSeq.Load() != seq {
		logger.Debug("Skipping identity push for superseded selection", "character_id", id)
		return
	}

	current, ok := s.CurrentCharacter()
	if !ok || current.ID != id {
		return
	}
	if err := s.session.SetName(ctx, current.Name); err != nil {
		logger.Warn("Failed to push player name", "character_id", id, "error", err)
	}
	if err := s.session.SetColor(ctx, current.Color); err != nil {
		logger.Warn("Failed to push player color", "character_id", id, "error", err)
	}
}

// UpsertCharacter inserts c at the end or replaces the entry with the same id in place
func (s *Store) UpsertCharacter(c models.Character) error {
	if c.ID == "" {
		return ErrInvalidCharacter
	}
	c = c.Clone()
	s.mutate(func(d *models.PlayerData) bool {
		d.Characters.Set(c)
		return true
	})
	return nil
}

// RemoveCharacter deletes id, clearing the selection if it pointed there.
// It reports whether anything was removed.
func (s *Store) RemoveCharacter(id string) bool {
	return s.mutate(func(d *models.PlayerData) bool {
		if !d.Characters.Delete(id) {
			return false
		}
		if d.SelectedCharacterID == id {
			d.SelectedCharacterID = ""
		}
		return true
	})
}

// MoveCharacterUp swaps id with its predecessor
func (s *Store) MoveCharacterUp(id string) bool {
	moved, _ := s.MoveCharacter(id, true)
	return moved
}

// MoveCharacterDown swaps id with its successor
func (s *Store) MoveCharacterDown(id string) bool {
	moved, _ := s.MoveCharacter(id, false)
	return moved
}

// MoveCharacter swaps id with its neighbour above (up) or below. Moving past
// either end reports false with no error; an absent id reports ErrCharacterNotFound.
func (s *Store) MoveCharacter(id string, up bool) (bool, error) {
	found := false
	moved := s.mutate(func(d *models.PlayerData) bool {
		i := d.Characters.Index(id)
		if i < 0 {
			return false
		}
		found = true
		j := i + 1
		if up {
			j = i - 1
		}
		if j < 0 || j >= d.Characters.Len() {
			return false
		}
		d.Characters.Swap(min(i, j), max(i, j))
		return true
	})
	if !found {
		return false, ErrCharacterNotFound
	}
	return moved, nil
}

// UpdateCharacter applies fn to the stored character. The id cannot be changed.
func (s *Store) UpdateCharacter(id string, fn func(*models.Character)) bool {
	return s.mutate(func(d *models.PlayerData) bool {
		return d.Characters.Update(id, fn)
	})
}

// UpsertToken stores tok under tokenID on the character
func (s *Store) UpsertToken(characterID, tokenID string, tok models.Token) bool {
	if tokenID == "" {
		return false
	}
	return s.UpdateCharacter(characterID, func(c *models.Character) {
		if c.Tokens == nil {
			c.Tokens = make(map[string]models.Token)
		}
		c.Tokens[tokenID] = tok
	})
}

// RemoveToken deletes a token, clearing the character's token selection if it pointed there
func (s *Store) RemoveToken(characterID, tokenID string) bool {
	return s.mutate(func(d *models.PlayerData) bool {
		c, ok := d.Characters.Get(characterID)
		if !ok {
			return false
		}
		if _, ok := c.Tokens[tokenID]; !ok {
			return false
		}
		return d.Characters.Update(characterID, func(c *models.Character) {
			delete(c.Tokens, tokenID)
			if c.SelectedTokenID == tokenID {
				c.SelectedTokenID = ""
			}
		})
	})
}

// SelectToken marks tokenID as the character's token. An empty tokenID
// clears the selection; otherwise the token must exist.
func (s *Store) SelectToken(characterID, tokenID string) bool {
	return s.mutate(func(d *models.PlayerData) bool {
		c, ok := d.Characters.Get(characterID)
		if !ok {
			return false
		}
		if tokenID != "" {
			if _, ok := c.Tokens[tokenID]; !ok {
				return false
			}
		}
		return d.Characters.Update(characterID, func(c *models.Character) {
			c.SelectedTokenID = tokenID
		})
	})
}

// Flush waits until every mutation committed so far has been written
func (s *Store) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.writes <- writeJob{ack: ack}
	s.mu.RUnlock()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer. Mutations after Close
// still update memory but are no longer persisted.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.writes)
		s.mu.Unlock()
	})
	<-s.done
	return nil
}

// mutate runs fn under the write lock. When fn reports a change the new
// state is queued for writing and handed to observers.
func (s *Store) mutate(fn func(*models.PlayerData) bool) bool {
	s.mu.Lock()
	if !fn(&s.data) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.data.Clone()
	s.enqueueLocked(snapshot.Clone())
	s.commits++
	seq := s.commits
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for s.delivered != seq-1 {
		s.notifyC.Wait()
	}
	defer func() {
		s.delivered = seq
		s.notifyC.Broadcast()
	}()
	s.notify(snapshot)
	return true
}

func (s *Store) enqueueLocked(data models.PlayerData) {
	if s.closed {
		logger.Warn("Store closed, change not persisted")
		return
	}
	s.writes <- writeJob{data: data}
}

func (s *Store) notify(snapshot models.PlayerData) {
	s.obsMu.Lock()
	fns := make([]func(models.PlayerData), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for i, fn := range fns {
		if i == len(fns)-1 {
			fn(snapshot)
			continue
		}
		fn(snapshot.Clone())
	}
}

func (s *Store) persist() {
	defer close(s.done)
	for job := range s.writes {
		if job.ack != nil {
			close(job.ack)
			continue
		}
		if err := s.codec.Save(job.data); err != nil {
			logger.Error("Failed to persist collection", "key", s.codec.Key(), "error", err)
		}
	}
	logger.Debug("Store writer stopped")
}
