package core

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"
)

// MaxAssets is the exclusive upper bound on the asset count the selector can
// reduce into: the index is taken from a single hash byte.
const MaxAssets = 256

// SequenceSource owns the selector counter. Next returns the current value and
// stores value+1, wrapping at the uint64 boundary.
type SequenceSource interface {
	Next(ctx context.Context) (uint64, error)
}

type BlockClock interface {
	BlockTimestamp(ctx context.Context) (uint64, error)
}

type Draw struct {
	Index     uint32
	Sequence  uint64
	Timestamp uint64
}

// SelectAssetIndex derives an index in [0, totalAssets) from the first byte of
// keccak256(be64(timestamp) || be64(counter)). The result is a pure function
// of its inputs. It is not unpredictable to whoever controls the timestamp.
func SelectAssetIndex(timestamp uint64, counter uint64, totalAssets uint32) (uint32, error) {
	if err := validateAssetCount(totalAssets); err != nil {
		return 0, err
	}
	var input [16]byte
	binary.BigEndian.PutUint64(input[:8], timestamp)
	binary.BigEndian.PutUint64(input[8:], counter)

	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(input[:])
	digest := hasher.Sum(nil)

	return uint32(digest[0] % uint8(totalAssets)), nil
}

func validateAssetCount(totalAssets uint32) error {
	if totalAssets == 0 {
		return NewError(ErrorNoAssetsDefined, "core: collection has no assets defined").
			WithMetadata(map[string]any{"total_assets": totalAssets})
	}
	if totalAssets >= MaxAssets {
		return NewError(ErrorTooManyAssets, fmt.Sprintf("core: collection defines %d assets, limit is %d", totalAssets, MaxAssets-1)).
			WithMetadata(map[string]any{"total_assets": totalAssets})
	}
	return nil
}

type Selector struct {
	source SequenceSource
}

func NewSelector(source SequenceSource) *Selector {
	if source == nil {
		source = NewMemorySequence(0)
	}
	return &Selector{source: source}
}

// Draw reserves the next counter value and derives the asset index for it.
// The counter advances once per draw whatever happens to the caller
// afterwards, so two draws at the same timestamp never share entropy.
func (s *Selector) Draw(ctx context.Context, timestamp uint64, totalAssets uint32) (Draw, error) {
	if s == nil || s.source == nil {
		return Draw{}, NewError(ErrorInternal, "core: selector is not configured")
	}
	if err := validateAssetCount(totalAssets); err != nil {
		return Draw{}, err
	}
	sequence, err := s.source.Next(ctx)
	if err != nil {
		return Draw{}, WrapError(err, ErrorInternal, "core: advance selector sequence")
	}
	index, err := SelectAssetIndex(timestamp, sequence, totalAssets)
	if err != nil {
		return Draw{}, err
	}
	return Draw{Index: index, Sequence: sequence, Timestamp: timestamp}, nil
}

type MemorySequence struct {
	mu      sync.Mutex
	counter uint64
}

func NewMemorySequence(initial uint64) *MemorySequence {
	return &MemorySequence{counter: initial}
}

func (m *MemorySequence) Next(context.Context) (uint64, error) {
	if m == nil {
		return 0, fmt.Errorf("core: memory sequence is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.counter
	m.counter++
	return current, nil
}

func (m *MemorySequence) current() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// SystemBlockClock reports wall-clock unix milliseconds, the unit registry
// hosts use for block timestamps.
type SystemBlockClock struct {
	Now func() time.Time
}

func (c SystemBlockClock) BlockTimestamp(context.Context) (uint64, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ms := now().UTC().UnixMilli()
	if ms < 0 {
		return 0, fmt.Errorf("core: clock before unix epoch")
	}
	return uint64(ms), nil
}

// FixedBlockClock always reports the same timestamp. Used for replay.
type FixedBlockClock uint64

func (c FixedBlockClock) BlockTimestamp(context.Context) (uint64, error) {
	return uint64(c), nil
}

var (
	_ SequenceSource = (*MemorySequence)(nil)
	_ BlockClock     = SystemBlockClock{}
	_ BlockClock     = FixedBlockClock(0)
)
