package cards

import (
	"log/slog"
	"sync"
	"time"
)

// Preloader warms an upcoming card's media before a readiness session needs
// it. Preloading is an optimization, not a correctness requirement:
// implementations never block and never fail outward.
type Preloader interface {
	// Preload begins background acquisition of card's primary media.
	Preload(card Card, preferVideo bool)

	// PreloadUpcoming preloads exactly the card after currentIndex, if one
	// exists. One step of look-ahead keeps resource usage bounded.
	PreloadUpcoming(seq Sequence, currentIndex int)
}

// MediaPreloader implements Preloader on top of a MediaLoader.
//
// Images are fetched and decode-probed in the background so a later
// readiness session finds them warm. Videos get a network hint; each hint is
// tracked and released after the hint TTL so abandoned navigation cannot
// accumulate hints without bound. At most one live hint exists per URL.
type MediaPreloader struct {
	loader    MediaLoader
	timing    Timing
	log       *slog.Logger
	onPreload func(kind MediaKind)

	mu    sync.Mutex
	hints map[string]*hintEntry
}

type hintEntry struct {
	handle LoadHandle
	timer  *time.Timer
}

// NewMediaPreloader returns a preloader using loader for acquisition. log and
// onPreload may be nil; onPreload fires once per issued preload.
func NewMediaPreloader(loader MediaLoader, timing Timing, log *slog.Logger, onPreload func(kind MediaKind)) *MediaPreloader {
	return &MediaPreloader{
		loader:    loader,
		timing:    timing.withDefaults(),
		log:       log,
		onPreload: onPreload,
		hints:     make(map[string]*hintEntry),
	}
}

// Preload implements Preloader.Preload.
func (p *MediaPreloader) Preload(card Card, preferVideo bool) {
	kind, url := card.PrimaryMedia(preferVideo)
	switch kind {
	case MediaImage:
		p.loader.Load(MediaImage, url, func(err error) {
			// The fetch itself did the warming; errors are swallowed.
			if err != nil && p.log != nil {
				p.log.Debug("preload failed",
					slog.String("card_id", string(card.ID)),
					slog.String("error", err.Error()))
			}
		})
	case MediaVideo:
		p.hint(url)
	default:
		return
	}
	if p.onPreload != nil {
		p.onPreload(kind)
	}
}

// PreloadUpcoming implements Preloader.PreloadUpcoming.
func (p *MediaPreloader) PreloadUpcoming(seq Sequence, currentIndex int) {
	next, ok := seq.At(currentIndex + 1)
	if !ok {
		return
	}
	p.Preload(next, seq.PreferVideo)
}

// Close releases every outstanding hint.
func (p *MediaPreloader) Close() {
	p.mu.Lock()
	hints := p.hints
	p.hints = make(map[string]*hintEntry)
	p.mu.Unlock()

	for _, e := range hints {
		e.timer.Stop()
		e.handle.Cancel()
	}
}

func (p *MediaPreloader) hint(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, live := p.hints[url]; live {
		return
	}
	e := &hintEntry{handle: p.loader.Hint(url)}
	e.timer = time.AfterFunc(p.timing.HintTTL, func() { p.expireHint(url) })
	p.hints[url] = e
}

func (p *MediaPreloader) expireHint(url string) {
	p.mu.Lock()
	e, ok := p.hints[url]
	if ok {
		delete(p.hints, url)
	}
	p.mu.Unlock()
	if ok {
		e.handle.Cancel()
	}
}
