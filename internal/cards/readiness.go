package cards

import "sync"

// TrackerHooks carries optional instrumentation callbacks. Any field may be nil.
type TrackerHooks struct {
	// OnTimeout fires when a session's media is resolved by the readiness
	// timeout rather than by the load itself.
	OnTimeout func()
}

// Tracker answers, for a single card at a time, "is this presentation safe
// to reveal right now, or when will it be?" without blocking the caller.
//
// A session combines two monotonic signals, "the rendering surface mounted"
// and "the primary media is ready", and fires its onReady callback exactly
// once, a settle delay after both are true. Media readiness is resolved by
// whichever comes first of load completion, load failure, or the readiness
// timeout; every one of those counts as ready, because the contract is
// "never block the UI forever", not "guarantee successful media".
//
// Each session carries a generation number. Async callbacks from a previous
// session check it and drop themselves instead of mutating the current one.
type Tracker struct {
	mu     sync.Mutex
	timing Timing
	loader MediaLoader
	hooks  TrackerHooks

	gen        uint64
	active     bool
	mounted    bool
	mediaReady bool
	notified   bool
	onReady    func()
	load       LoadHandle
	timers     timerSet
}

// NewTracker returns a tracker with no active session.
func NewTracker(loader MediaLoader, timing Timing) *Tracker {
	return NewTrackerWithHooks(loader, timing, TrackerHooks{})
}

// NewTrackerWithHooks is NewTracker with instrumentation callbacks.
func NewTrackerWithHooks(loader MediaLoader, timing Timing, hooks TrackerHooks) *Tracker {
	return &Tracker{
		timing: timing.withDefaults(),
		loader: loader,
		hooks:  hooks,
	}
}

// StartSession begins a readiness session for card, replacing any previous
// session. onReady is invoked at most once, after the card is fully ready
// and the settle delay has elapsed. A card with no primary media is media-
// ready immediately and only waits for the mount signal.
func (t *Tracker) StartSession(card Card, preferVideo bool, onReady func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetLocked()
	t.active = true
	t.onReady = onReady
	gen := t.gen

	kind, url := card.PrimaryMedia(preferVideo)
	if kind == MediaNone {
		t.mediaReady = true
		return
	}

	t.load = t.loader.Load(kind, url, func(error) {
		// Failures resolve readiness the same as success.
		t.resolveMedia(gen)
	})
	t.timers.after(t.timing.ReadinessTimeout, func() {
		if t.resolveMedia(gen) && t.hooks.OnTimeout != nil {
			t.hooks.OnTimeout()
		}
	})
}

// MarkMounted records that the rendering surface for the tracked card has
// attached. Calls outside an active session are ignored.
func (t *Tracker) MarkMounted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.mounted {
		return
	}
	t.mounted = true
	t.maybeSettleLocked()
}

// ResetSession cancels the pending load and all outstanding timers, clears
// the session flags, and re-arms the one-shot notification guard. Idempotent.
func (t *Tracker) ResetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// State returns a snapshot of the current session's readiness flags.
func (t *Tracker) State() ReadinessState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ReadinessState{Mounted: t.mounted, MediaReady: t.mediaReady}
}

// resolveMedia marks the session's media ready and reports whether this call
// was the one that resolved it. Stale generations and already-resolved
// sessions are no-ops, which keeps mediaReady monotonic within a session.
func (t *Tracker) resolveMedia(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.mediaReady {
		return false
	}
	t.mediaReady = true
	t.maybeSettleLocked()
	return true
}

// maybeSettleLocked arms the settle timer the first time the session becomes
// fully ready. The notified guard makes the notification one-shot even if
// readiness is re-derived later in the session. Caller holds t.mu.
func (t *Tracker) maybeSettleLocked() {
	if !t.mounted || !t.mediaReady || t.notified {
		return
	}
	t.notified = true
	gen := t.gen
	t.timers.after(t.timing.SettleDelay, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		onReady := t.onReady
		t.mu.Unlock()
		if onReady != nil {
			onReady()
		}
	})
}

// resetLocked is ResetSession without the lock. Bumping the generation
// fences every callback the cancellations below might have missed.
func (t *Tracker) resetLocked() {
	t.gen++
	if t.load != nil {
		t.load.Cancel()
		t.load = nil
	}
	t.timers.cancelAll()
	t.active = false
	t.mounted = false
	t.mediaReady = false
	t.notified = false
	t.onReady = nil
}
