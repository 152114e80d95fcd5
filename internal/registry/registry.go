package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

var (
	ErrPoolNotFound   = errors.New("pool not found")
	ErrInvalidAddress = errors.New("invalid address")
	ErrStaleSnapshot  = errors.New("stale snapshot")
	ErrNotMetaPool    = errors.New("not a meta pool")
)

type entry struct {
	snapshot model.PoolSnapshot
	pool     stableswap.Pool
}

// Registry holds the latest snapshot of every known pool. Snapshots are
// replaced whole, never edited, so readers always see a consistent pool.
type Registry struct {
	mu     sync.RWMutex
	data   map[common.Address]entry
	logger *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{data: make(map[common.Address]entry), logger: logger}
}

// Update validates a snapshot and installs it. A snapshot older than the one
// already held is rejected with ErrStaleSnapshot.
func (r *Registry) Update(snapshot model.PoolSnapshot) error {
	address, err := ParseAddress(snapshot.Address)
	if err != nil {
		return err
	}
	pool, err := ToPool(snapshot)
	if err != nil {
		return fmt.Errorf("pool %s: %w", address.Hex(), err)
	}
	snapshot.Address = address.Hex()

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.data[address]; ok && current.snapshot.UpdatedAt > snapshot.UpdatedAt {
		return fmt.Errorf("%w: pool %s at %d, have %d", ErrStaleSnapshot, address.Hex(), snapshot.UpdatedAt, current.snapshot.UpdatedAt)
	}
	r.data[address] = entry{snapshot: snapshot, pool: pool}
	return nil
}

// UpdateAll applies snapshots in order and returns how many were installed.
// Stale and invalid snapshots are logged and skipped.
func (r *Registry) UpdateAll(snapshots []model.PoolSnapshot) int {
	applied := 0
	for _, snapshot := range snapshots {
		if err := r.Update(snapshot); err != nil {
			level := r.logger.Warn
			if errors.Is(err, ErrStaleSnapshot) {
				level = r.logger.Debug
			}
			level("snapshot skipped", zap.String("pool", snapshot.Address), zap.Error(err))
			continue
		}
		applied++
	}
	return applied
}

// Get returns the raw snapshot for address.
func (r *Registry) Get(address string) (model.PoolSnapshot, bool) {
	addr, err := ParseAddress(address)
	if err != nil {
		return model.PoolSnapshot{}, false
	}
	r.mu.RLock()
	e, ok := r.data[addr]
	r.mu.RUnlock()
	return e.snapshot, ok
}

// Pool returns a private copy of the engine pool for address.
func (r *Registry) Pool(address string) (stableswap.Pool, error) {
	e, err := r.lookup(address)
	if err != nil {
		return stableswap.Pool{}, err
	}
	return e.pool.Clone(), nil
}

// MetaPool resolves a meta pool together with its base pool.
func (r *Registry) MetaPool(address string) (stableswap.MetaPool, error) {
	e, err := r.lookup(address)
	if err != nil {
		return stableswap.MetaPool{}, err
	}
	if !e.snapshot.IsMeta() {
		return stableswap.MetaPool{}, fmt.Errorf("%w: %s", ErrNotMetaPool, e.snapshot.Address)
	}
	base, err := r.lookup(e.snapshot.BasePool)
	if err != nil {
		return stableswap.MetaPool{}, fmt.Errorf("base pool of %s: %w", e.snapshot.Address, err)
	}
	return stableswap.MetaPool{Meta: e.pool.Clone(), Base: base.pool.Clone()}, nil
}

// List returns every snapshot ordered by address.
func (r *Registry) List() []model.PoolSnapshot {
	r.mu.RLock()
	out := make([]model.PoolSnapshot, 0, len(r.data))
	for _, e := range r.data {
		out = append(out, e.snapshot)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Address) < strings.ToLower(out[j].Address)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *Registry) lookup(address string) (entry, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return entry{}, err
	}
	r.mu.RLock()
	e, ok := r.data[addr]
	r.mu.RUnlock()
	if !ok {
		return entry{}, fmt.Errorf("%w: %s", ErrPoolNotFound, addr.Hex())
	}
	return e, nil
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, input)
	}
	return common.HexToAddress(input), nil
}
