// Package registry keeps every live match of the process, keyed by match id.
//
// The map itself is guarded by go-cache; each match additionally carries its own
// lock so that a whole request (resolve player, validate, mutate, read back) runs
// as one critical section without blocking other matches.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"
)

const maxIDAttempts = 5

var ErrIDCollision = errors.New("could not generate a unique match id")

type Options struct {
	// Strict is copied to every created match.
	Strict bool

	// IdleTTL drops matches nobody touched for this long. Zero keeps them forever.
	IdleTTL time.Duration
}

type Registry struct {
	matches *cache.Cache
	strict  bool
	idleTTL time.Duration
	newID   func() string
}

// Handle gives serialized access to one match.
type Handle struct {
	mu       sync.RWMutex
	match    *entity.Match
	registry *Registry
}

func New(opts Options) *Registry {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if opts.IdleTTL > 0 {
		expiration, cleanup = opts.IdleTTL, opts.IdleTTL
	}

	return &Registry{
		matches: cache.New(expiration, cleanup),
		strict:  opts.Strict,
		idleTTL: opts.IdleTTL,
		newID:   uuid.NewString,
	}
}

// Create registers a new match where creator holds X and O waits for an opponent.
func (that *Registry) Create(creator entity.ConnID) (string, entity.PlayerSlot, error) {
	if creator == "" {
		return "", entity.PlayerSlot{}, apperror.ErrInvalidIdentity
	}

	for range maxIDAttempts {
		id := that.newID()

		match, err := entity.NewMatch(id,
			entity.PlayerSlot{ID: creator, Mark: entity.MarkX},
			entity.PlayerSlot{Mark: entity.MarkO},
		)
		if err != nil {
			return "", entity.PlayerSlot{}, fmt.Errorf("failed to create match: %w", err)
		}

		match.Strict = that.strict

		// Add fails when the key exists, so the insert is atomic and never overwrites.
		if err = that.matches.Add(id, &Handle{match: match, registry: that}, cache.DefaultExpiration); err != nil {
			continue
		}

		return id, match.Slots[0], nil
	}

	return "", entity.PlayerSlot{}, ErrIDCollision
}

func (that *Registry) Get(id string) (*Handle, error) {
	value, ok := that.matches.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchNotFound, id)
	}

	handle, ok := value.(*Handle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchNotFound, id)
	}

	return handle, nil
}

// Len returns the number of live matches.
func (that *Registry) Len() int {
	return that.matches.ItemCount()
}

// Update runs fn with exclusive access to the match. A handle whose match has
// already expired returns ErrMatchNotFound and never runs fn.
func (that *Handle) Update(fn func(match *entity.Match) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.touch() {
		return fmt.Errorf("%w: %s", apperror.ErrMatchNotFound, that.match.ID)
	}

	return fn(that.match)
}

// View runs fn with shared access to the match. fn must not mutate it. An
// expired match is still readable through a handle taken before it expired.
func (that *Handle) View(fn func(match *entity.Match)) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	that.touch()

	fn(that.match)
}

// touch restarts the idle timer. It reports false once the match has expired;
// Replace never puts an expired match back.
func (that *Handle) touch() bool {
	if that.registry.idleTTL <= 0 {
		return true
	}

	return that.registry.matches.Replace(that.match.ID, that, cache.DefaultExpiration) == nil
}
