package rtp

import (
	"net"
	"sync"
)

// Registry is the concurrent SSRC→Context map (spec.md §2 ParticipantRegistry,
// §5). Read-locked operations: outbound fanout, lookup. Write-locked
// operations: insert, remove, get-or-create. The lock is a plain RWMutex,
// grounded on the teacher's SourceManager (source_manager.go), simplified:
// no cleanup goroutine, no jitter/probation bookkeeping — spec.md's registry
// only removes contexts explicitly (RemoveParticipant) or latches BYE.
type Registry struct {
	mu    sync.RWMutex
	byssr map[uint32]*Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byssr: make(map[uint32]*Context)}
}

// Get returns the context for ssrc, or nil if absent.
func (r *Registry) Get(ssrc uint32) *Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byssr[ssrc]
}

// Insert adds p under write lock and reports whether a new entry was
// created (false if an entry for p.SSRC already existed).
func (r *Registry) Insert(p *Participant) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byssr[p.SSRC]; ok {
		return existing, false
	}
	ctx := NewContext(p)
	r.byssr[p.SSRC] = ctx
	return ctx, true
}

// GetOrCreate returns the existing context for ssrc, or creates one from
// build() and inserts it, reporting whether it was newly created. build is
// only invoked while holding the write lock and only when no entry exists.
func (r *Registry) GetOrCreate(ssrc uint32, build func() *Participant) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byssr[ssrc]; ok {
		return existing, false
	}
	ctx := NewContext(build())
	r.byssr[ssrc] = ctx
	return ctx, true
}

// Remove deletes and returns the context for ssrc, or nil if absent.
func (r *Registry) Remove(ssrc uint32) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, ok := r.byssr[ssrc]
	if !ok {
		return nil
	}
	delete(r.byssr, ssrc)
	return ctx
}

// All returns a snapshot slice of every context currently registered,
// taken under a read lock.
func (r *Registry) All() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Context, 0, len(r.byssr))
	for _, ctx := range r.byssr {
		out = append(out, ctx)
	}
	return out
}

// RangeLive calls fn for every context without a latched BYE, holding the
// read lock for the duration of the call — the discipline spec.md §5
// requires so that transport writes under iteration see addresses that
// cannot be concurrently freed. fn must not call back into the registry.
func (r *Registry) RangeLive(fn func(ctx *Context)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ctx := range r.byssr {
		if ctx.ByeReceived() {
			continue
		}
		fn(ctx)
	}
}

// RebindDataAddress sets ctx.Participant.DataAddress to origin under write
// lock; the engine calls it when origin differs from the recorded address
// (spec.md §4.2 "Address repair").
func (r *Registry) RebindDataAddress(ctx *Context, origin net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx.Participant.DataAddress = origin
}

// RebindControlAddress updates ctx.Participant.ControlAddress under write
// lock (spec.md §4.3.2).
func (r *Registry) RebindControlAddress(ctx *Context, origin net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx.Participant.ControlAddress = origin
}

// ApplySDES merges chunk's non-empty descriptive fields into ctx.Participant
// under write lock, the same discipline as RebindControlAddress — RangeLive
// readers take the read lock over the same Participant fields, so mutating
// them outside this lock would race (spec.md §4.3.2, §5).
func (r *Registry) ApplySDES(ctx *Context, chunk SDESChunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	applySDES(ctx.Participant, chunk)
}
