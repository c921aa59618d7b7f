package iblockproc

import (
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/opera-remasc/inter"
)

// PendingBlocks keeps the canonical headers of heights that are processed
// but not settled. A settlement round needs the canonical miner and fees of
// the matured height, which the execution engine no longer passes in.
type PendingBlocks struct {
	headers map[idx.Block]inter.Header
}

// NewPendingBlocks returns an empty set.
func NewPendingBlocks() PendingBlocks {
	return PendingBlocks{headers: make(map[idx.Block]inter.Header)}
}

// Put stores the canonical header of its height.
func (p *PendingBlocks) Put(h inter.Header) {
	if p.headers == nil {
		p.headers = make(map[idx.Block]inter.Header)
	}
	p.headers[h.Number] = h.Copy()
}

// Get returns the canonical header of the height, if pending.
func (p PendingBlocks) Get(height idx.Block) (inter.Header, bool) {
	h, ok := p.headers[height]
	return h, ok
}

// Take removes and returns the canonical header of the height.
func (p *PendingBlocks) Take(height idx.Block) (inter.Header, bool) {
	h, ok := p.headers[height]
	if ok {
		delete(p.headers, height)
	}
	return h, ok
}

// Len returns the number of pending heights.
func (p PendingBlocks) Len() int {
	return len(p.headers)
}

// Headers returns the pending headers ordered by height.
func (p PendingBlocks) Headers() []inter.Header {
	headers := make([]inter.Header, 0, len(p.headers))
	for _, h := range p.headers {
		headers = append(headers, h.Copy())
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Number < headers[j].Number })
	return headers
}

// Copy returns a deep copy of the set.
func (p PendingBlocks) Copy() PendingBlocks {
	cp := PendingBlocks{headers: make(map[idx.Block]inter.Header, len(p.headers))}
	for k, h := range p.headers {
		cp.headers[k] = h.Copy()
	}
	return cp
}
