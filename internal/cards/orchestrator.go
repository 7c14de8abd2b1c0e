package cards

import (
	"log/slog"
	"sync"
)

// noPending is the pending-index sentinel for the Idle state.
const noPending = -1

// Orchestrator serializes navigation over one sequence and decides the
// moment the displayed index may advance.
//
// It is a two-state machine: Idle (no pending index) and Transitioning
// (exactly one pending index). A navigation request in Transitioning is
// rejected, never queued; callers are expected to disable navigation
// controls while a transition is in flight. When the pending card's
// readiness session fires, the displayed index flips and the card after it
// is preloaded.
type Orchestrator struct {
	mu        sync.Mutex
	seq       Sequence
	displayed int
	pending   int
	epoch     uint64
	tracker   *Tracker
	preloader Preloader
	log       *slog.Logger
}

// NewOrchestrator returns an Idle orchestrator showing startIndex (clamped
// to 0 when out of bounds) and warms the card after it, so the first forward
// navigation benefits from look-ahead too. log may be nil.
func NewOrchestrator(seq Sequence, startIndex int, tracker *Tracker, preloader Preloader, log *slog.Logger) *Orchestrator {
	if !seq.InBounds(startIndex) {
		startIndex = 0
	}
	o := &Orchestrator{
		seq:       seq,
		displayed: startIndex,
		pending:   noPending,
		tracker:   tracker,
		preloader: preloader,
		log:       log,
	}
	preloader.PreloadUpcoming(seq, startIndex)
	return o
}

// RequestNavigate asks to reveal the card at target and reports whether a
// transition started. Out-of-bounds targets, the currently displayed index,
// and requests issued while another transition is in flight are rejected as
// no-ops; rejection is policy, not an error.
func (o *Orchestrator) RequestNavigate(target int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending != noPending || !o.seq.InBounds(target) || target == o.displayed {
		return false
	}

	o.pending = target
	epoch := o.epoch
	card, _ := o.seq.At(target)

	if o.log != nil {
		o.log.Debug("transition started",
			slog.Int("from", o.displayed),
			slog.Int("to", target),
			slog.String("card_id", string(card.ID)))
	}

	o.tracker.StartSession(card, o.seq.PreferVideo, func() {
		o.commit(epoch)
	})
	return true
}

// Next requests navigation to the card after the displayed one. At the end
// of the sequence it is a no-op.
func (o *Orchestrator) Next() bool {
	return o.RequestNavigate(o.DisplayedIndex() + 1)
}

// Previous requests navigation to the card before the displayed one. At the
// start of the sequence it is a no-op.
func (o *Orchestrator) Previous() bool {
	return o.RequestNavigate(o.DisplayedIndex() - 1)
}

// MarkMounted forwards the rendering surface's mount signal for the pending
// card to its readiness session.
func (o *Orchestrator) MarkMounted() {
	o.tracker.MarkMounted()
}

// DisplayedIndex returns the index currently visible to the user.
func (o *Orchestrator) DisplayedIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.displayed
}

// PendingIndex returns the in-flight target index; ok is false when Idle.
func (o *Orchestrator) PendingIndex() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending, o.pending != noPending
}

// InFlight reports whether a transition is being awaited.
func (o *Orchestrator) InFlight() bool {
	_, ok := o.PendingIndex()
	return ok
}

// Snapshot returns a consistent view of the orchestrator's state.
func (o *Orchestrator) Snapshot() SessionState {
	o.mu.Lock()
	st := SessionState{
		DisplayedIndex: o.displayed,
		Transitioning:  o.pending != noPending,
		CardCount:      o.seq.Len(),
	}
	if o.pending != noPending {
		p := o.pending
		st.PendingIndex = &p
	}
	o.mu.Unlock()

	st.Readiness = o.tracker.State()
	return st
}

// ReplaceSequence swaps the card list. An in-flight transition is abandoned,
// its readiness session reset, and the displayed index clamped into the new
// bounds.
func (o *Orchestrator) ReplaceSequence(seq Sequence) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	o.pending = noPending
	o.seq = seq
	if o.displayed >= seq.Len() {
		o.displayed = seq.Len() - 1
	}
	if o.displayed < 0 {
		o.displayed = 0
	}
	o.tracker.ResetSession()
}

// Close abandons any in-flight transition and releases the readiness
// session's resources. The orchestrator must not be used afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	o.pending = noPending
	o.tracker.ResetSession()
}

// commit flips the displayed index once the pending card's readiness session
// fires. The epoch fences commits from sessions abandoned by
// ReplaceSequence or Close.
func (o *Orchestrator) commit(epoch uint64) {
	o.mu.Lock()
	if epoch != o.epoch || o.pending == noPending {
		o.mu.Unlock()
		return
	}
	o.displayed = o.pending
	o.pending = noPending
	o.epoch++
	seq, displayed := o.seq, o.displayed
	log := o.log
	o.mu.Unlock()

	if log != nil {
		log.Debug("transition committed", slog.Int("displayed", displayed))
	}
	o.preloader.PreloadUpcoming(seq, displayed)
}
