package cards

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

// testTiming keeps timer-driven tests fast. The readiness timeout is long
// enough that tests resolving media manually never race it.
func testTiming() Timing {
	return Timing{
		ReadinessTimeout: 200 * time.Millisecond,
		SettleDelay:      5 * time.Millisecond,
		HintTTL:          50 * time.Millisecond,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// fakeLoad is a load started against a fakeLoader. Tests resolve it by
// calling done directly.
type fakeLoad struct {
	kind MediaKind
	url  string
	done func(error)

	mu        sync.Mutex
	cancelled bool
}

func (l *fakeLoad) Cancel() {
	l.mu.Lock()
	l.cancelled = true
	l.mu.Unlock()
}

func (l *fakeLoad) isCancelled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled
}

// fakeHint is a hint issued against a fakeLoader.
type fakeHint struct {
	url string

	mu        sync.Mutex
	cancelled bool
}

func (h *fakeHint) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
}

func (h *fakeHint) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// fakeLoader records loads and hints and leaves resolution to the test.
// Completion callbacks are never invoked from inside Load, matching the
// MediaLoader contract.
type fakeLoader struct {
	mu    sync.Mutex
	loads []*fakeLoad
	hints []*fakeHint
}

func (f *fakeLoader) Load(kind MediaKind, url string, done func(error)) LoadHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	ld := &fakeLoad{kind: kind, url: url, done: done}
	f.loads = append(f.loads, ld)
	return ld
}

func (f *fakeLoader) Hint(url string) LoadHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &fakeHint{url: url}
	f.hints = append(f.hints, h)
	return h
}

func (f *fakeLoader) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeLoader) lastLoad(t *testing.T) *fakeLoad {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loads) == 0 {
		t.Fatal("no loads started")
	}
	return f.loads[len(f.loads)-1]
}

func (f *fakeLoader) lastHint(t *testing.T) *fakeHint {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.hints) == 0 {
		t.Fatal("no hints issued")
	}
	return f.hints[len(f.hints)-1]
}

func (f *fakeLoader) hintCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hints)
}

// fakePreloader records which card indices were preloaded.
type fakePreloader struct {
	mu      sync.Mutex
	indices []int
}

func (f *fakePreloader) Preload(Card, bool) {}

func (f *fakePreloader) PreloadUpcoming(seq Sequence, currentIndex int) {
	if !seq.InBounds(currentIndex + 1) {
		return
	}
	f.mu.Lock()
	f.indices = append(f.indices, currentIndex+1)
	f.mu.Unlock()
}

func (f *fakePreloader) preloaded() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.indices))
	copy(out, f.indices)
	return out
}

// imageSequence builds an n-card sequence with image URLs only.
func imageSequence(n int) Sequence {
	seq := Sequence{Cards: make([]Card, 0, n)}
	for i := 0; i < n; i++ {
		seq.Cards = append(seq.Cards, Card{
			ID:       CardID(rune('a' + i)),
			ImageURL: "https://cdn.test/img-" + string(rune('a'+i)) + ".jpg",
		})
	}
	return seq
}
