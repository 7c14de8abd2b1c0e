package cards

import "time"

// CardID uniquely identifies a card within a sequence.
type CardID string

// SessionID uniquely identifies a viewing session.
type SessionID string

// MediaKind classifies a card's primary media resource.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaImage
	MediaVideo
)

// String returns the lowercase name of the media kind.
func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "none"
	}
}

// Card is one step of a sequence. At most one of its media URLs is treated
// as primary. This also matches the input JSON payload for creating sessions.
type Card struct {
	ID       CardID `json:"id"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// PrimaryMedia resolves the card's primary media resource. Video is selected
// only when preferVideo is set and a video URL is actually present; a video
// preference without a video URL falls back to the image branch.
func (c Card) PrimaryMedia(preferVideo bool) (MediaKind, string) {
	if preferVideo && c.VideoURL != "" {
		return MediaVideo, c.VideoURL
	}
	if c.ImageURL != "" {
		return MediaImage, c.ImageURL
	}
	return MediaNone, ""
}

// Sequence is an ordered card list with its per-sequence media preference.
// Sequences are treated as immutable once handed to an orchestrator; swapping
// cards goes through Orchestrator.ReplaceSequence.
type Sequence struct {
	Cards       []Card `json:"cards"`
	PreferVideo bool   `json:"prefer_video"`
}

// Len returns the number of cards in the sequence.
func (s Sequence) Len() int {
	return len(s.Cards)
}

// InBounds reports whether i is a valid card index.
func (s Sequence) InBounds(i int) bool {
	return i >= 0 && i < len(s.Cards)
}

// At returns the card at index i; ok is false when i is out of bounds.
func (s Sequence) At(i int) (Card, bool) {
	if !s.InBounds(i) {
		return Card{}, false
	}
	return s.Cards[i], true
}

// ReadinessState is a snapshot of one readiness session's flags.
type ReadinessState struct {
	Mounted    bool `json:"mounted"`
	MediaReady bool `json:"media_ready"`
}

// FullyReady reports whether the tracked card is safe to reveal.
func (r ReadinessState) FullyReady() bool {
	return r.Mounted && r.MediaReady
}

// SessionState is the externally visible snapshot of a session: what the
// rendering layer needs to render the displayed card, disable navigation
// controls while a transition is in flight, and show a placeholder for a
// card revealed before its media finished loading.
type SessionState struct {
	SessionID      SessionID      `json:"session_id"`
	DisplayedIndex int            `json:"displayed_index"`
	PendingIndex   *int           `json:"pending_index,omitempty"`
	Transitioning  bool           `json:"transitioning"`
	CardCount      int            `json:"card_count"`
	Readiness      ReadinessState `json:"readiness"`
}

// Reference timings. Readiness never waits longer than the timeout, the
// settle delay keeps the reveal out of the same paint as the readiness
// signal, and hints are released after the TTL if nothing consumed them.
const (
	DefaultReadinessTimeout = 3 * time.Second
	DefaultSettleDelay      = 80 * time.Millisecond
	DefaultHintTTL          = 30 * time.Second
)

// Timing groups the pipeline's timeouts in one place so tests can shorten
// them and deployments can override them from the environment.
type Timing struct {
	ReadinessTimeout time.Duration
	SettleDelay      time.Duration
	HintTTL          time.Duration
}

// DefaultTiming returns the reference timing values.
func DefaultTiming() Timing {
	return Timing{
		ReadinessTimeout: DefaultReadinessTimeout,
		SettleDelay:      DefaultSettleDelay,
		HintTTL:          DefaultHintTTL,
	}
}

// withDefaults fills zero fields with the reference values.
func (t Timing) withDefaults() Timing {
	if t.ReadinessTimeout <= 0 {
		t.ReadinessTimeout = DefaultReadinessTimeout
	}
	if t.SettleDelay <= 0 {
		t.SettleDelay = DefaultSettleDelay
	}
	if t.HintTTL <= 0 {
		t.HintTTL = DefaultHintTTL
	}
	return t
}
