package iblockproc

import (
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-remasc/inter"
)

// SiblingRegistry keeps the sibling records of every height that has not been
// settled yet. Records of one height keep their insertion order, and a block
// hash is recorded at most once across all heights.
type SiblingRegistry struct {
	byHeight map[idx.Block][]inter.Sibling
	known    map[common.Hash]idx.Block
}

// SiblingEntry is the records of one height, as exported for hashing and storage.
type SiblingEntry struct {
	Height   idx.Block
	Siblings []inter.Sibling
}

// NewSiblingRegistry returns an empty registry.
func NewSiblingRegistry() SiblingRegistry {
	return SiblingRegistry{
		byHeight: make(map[idx.Block][]inter.Sibling),
		known:    make(map[common.Hash]idx.Block),
	}
}

// Record appends a sibling to the records of its height. It returns false,
// leaving the registry untouched, if the hash is already recorded.
func (r *SiblingRegistry) Record(s inter.Sibling) bool {
	r.init()
	if _, ok := r.known[s.Hash]; ok {
		return false
	}
	r.byHeight[s.Number] = append(r.byHeight[s.Number], s.Copy())
	r.known[s.Hash] = s.Number
	return true
}

// Take removes and returns every record of the height, in insertion order.
// Taking a height twice returns nothing the second time.
func (r *SiblingRegistry) Take(height idx.Block) []inter.Sibling {
	r.init()
	records := r.byHeight[height]
	delete(r.byHeight, height)
	for _, s := range records {
		delete(r.known, s.Hash)
	}
	return records
}

// Get returns a copy of the records of the height without removing them.
func (r SiblingRegistry) Get(height idx.Block) []inter.Sibling {
	records := r.byHeight[height]
	if len(records) == 0 {
		return nil
	}
	cp := make([]inter.Sibling, len(records))
	for i, s := range records {
		cp[i] = s.Copy()
	}
	return cp
}

// Contains reports whether the hash is recorded at any height.
func (r SiblingRegistry) Contains(h common.Hash) bool {
	_, ok := r.known[h]
	return ok
}

// Len returns the number of recorded siblings across all heights.
func (r SiblingRegistry) Len() int {
	return len(r.known)
}

// Heights returns the heights with pending records, ascending.
func (r SiblingRegistry) Heights() []idx.Block {
	heights := make([]idx.Block, 0, len(r.byHeight))
	for h := range r.byHeight {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}

// Entries returns every height with its records, heights ascending.
func (r SiblingRegistry) Entries() []SiblingEntry {
	heights := r.Heights()
	entries := make([]SiblingEntry, len(heights))
	for i, h := range heights {
		entries[i] = SiblingEntry{Height: h, Siblings: r.Get(h)}
	}
	return entries
}

// Copy returns a deep copy of the registry.
func (r SiblingRegistry) Copy() SiblingRegistry {
	cp := SiblingRegistry{
		byHeight: make(map[idx.Block][]inter.Sibling, len(r.byHeight)),
		known:    make(map[common.Hash]idx.Block, len(r.known)),
	}
	for h := range r.byHeight {
		cp.byHeight[h] = r.Get(h)
	}
	for k, v := range r.known {
		cp.known[k] = v
	}
	return cp
}

func (r *SiblingRegistry) init() {
	if r.byHeight == nil {
		r.byHeight = make(map[idx.Block][]inter.Sibling)
	}
	if r.known == nil {
		r.known = make(map[common.Hash]idx.Block)
	}
}
