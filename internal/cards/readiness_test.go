package cards

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTracker_no_media_ready_immediately(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1"}, false, func() { fired.Add(1) })

	if st := tr.State(); !st.MediaReady {
		t.Error("card without media should be media-ready immediately")
	}
	if st := tr.State(); st.Mounted {
		t.Error("mounted should start false")
	}
	if loader.loadCount() != 0 {
		t.Errorf("no load should start for a card without media, got %d", loader.loadCount())
	}

	tr.MarkMounted()
	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady after mount")
}

func TestTracker_load_success_then_mount(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() { fired.Add(1) })

	ld := loader.lastLoad(t)
	if ld.kind != MediaImage {
		t.Errorf("expected image load, got %v", ld.kind)
	}

	ld.done(nil)
	waitFor(t, func() bool { return tr.State().MediaReady }, "media ready after load")

	if fired.Load() != 0 {
		t.Fatal("onReady must not fire before mount")
	}

	tr.MarkMounted()
	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady after mount")
}

func TestTracker_broken_media_resolves_by_timeout(t *testing.T) {
	timing := testTiming()
	timing.ReadinessTimeout = 30 * time.Millisecond
	loader := &fakeLoader{}

	var timeouts atomic.Int32
	tr := NewTrackerWithHooks(loader, timing, TrackerHooks{OnTimeout: func() { timeouts.Add(1) }})

	var fired atomic.Int32
	start := time.Now()
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/broken.jpg"}, false, func() { fired.Add(1) })
	tr.MarkMounted()

	// The load never resolves; readiness must come from the timeout.
	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady via timeout")

	if elapsed := time.Since(start); elapsed > timing.ReadinessTimeout+timing.SettleDelay+time.Second {
		t.Errorf("readiness took %v, want within timeout+settle", elapsed)
	}
	if !tr.State().MediaReady {
		t.Error("media should end ready even though the load never finished")
	}
	if timeouts.Load() != 1 {
		t.Errorf("expected one timeout hook call, got %d", timeouts.Load())
	}
}

func TestTracker_load_error_counts_as_ready(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() { fired.Add(1) })
	tr.MarkMounted()

	loader.lastLoad(t).done(errors.New("decode failed"))
	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady after load error")

	if !tr.State().MediaReady {
		t.Error("a failed load must still resolve media readiness")
	}
}

func TestTracker_media_ready_is_monotonic(t *testing.T) {
	timing := testTiming()
	timing.ReadinessTimeout = 20 * time.Millisecond
	loader := &fakeLoader{}
	tr := NewTracker(loader, timing)

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/slow.jpg"}, false, func() { fired.Add(1) })
	tr.MarkMounted()

	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady via timeout")

	// A late load success after the timeout must not regress state or
	// re-fire the notification.
	loader.lastLoad(t).done(nil)
	time.Sleep(20 * time.Millisecond)

	if !tr.State().MediaReady {
		t.Error("media readiness regressed after late load event")
	}
	if fired.Load() != 1 {
		t.Errorf("onReady fired %d times, want exactly 1", fired.Load())
	}
}

func TestTracker_on_ready_fires_once(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() { fired.Add(1) })

	tr.MarkMounted()
	tr.MarkMounted()
	loader.lastLoad(t).done(nil)

	waitFor(t, func() bool { return fired.Load() >= 1 }, "onReady")
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("onReady fired %d times, want exactly 1", fired.Load())
	}
}

func TestTracker_reset_is_idempotent(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() {})
	tr.MarkMounted()

	tr.ResetSession()
	st1 := tr.State()
	tr.ResetSession()
	st2 := tr.State()

	if st1 != st2 {
		t.Errorf("double reset changed state: %+v vs %+v", st1, st2)
	}
	if st2.Mounted || st2.MediaReady {
		t.Errorf("reset should clear flags, got %+v", st2)
	}
}

func TestTracker_reset_cancels_pending_session(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() { fired.Add(1) })
	ld := loader.lastLoad(t)

	tr.ResetSession()

	if !ld.isCancelled() {
		t.Error("reset must cancel the pending load")
	}

	// A late event from the abandoned session must be ignored.
	ld.done(nil)
	tr.MarkMounted()
	time.Sleep(20 * time.Millisecond)

	if fired.Load() != 0 {
		t.Errorf("abandoned session fired onReady %d times", fired.Load())
	}
	if st := tr.State(); st.MediaReady || st.Mounted {
		t.Errorf("late event mutated reset state: %+v", st)
	}
}

func TestTracker_restart_rearms_notification(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	onReady := func() { fired.Add(1) }

	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, onReady)
	loader.lastLoad(t).done(nil)
	tr.MarkMounted()
	waitFor(t, func() bool { return fired.Load() == 1 }, "first session onReady")

	tr.StartSession(Card{ID: "c2", ImageURL: "https://cdn.test/b.jpg"}, false, onReady)
	loader.lastLoad(t).done(nil)
	tr.MarkMounted()
	waitFor(t, func() bool { return fired.Load() == 2 }, "second session onReady")
}

func TestTracker_prefer_video_selects_video(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	card := Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg", VideoURL: "https://cdn.test/a.mp4"}
	tr.StartSession(card, true, func() {})

	ld := loader.lastLoad(t)
	if ld.kind != MediaVideo {
		t.Errorf("prefer_video with a video URL should load video, got %v", ld.kind)
	}
	if ld.url != card.VideoURL {
		t.Errorf("loaded %q, want %q", ld.url, card.VideoURL)
	}
}

func TestTracker_prefer_video_without_url_falls_back_to_image(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	card := Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}
	tr.StartSession(card, true, func() {})

	ld := loader.lastLoad(t)
	if ld.kind != MediaImage {
		t.Errorf("prefer_video without a video URL must fall back to image, got %v", ld.kind)
	}
	if ld.url != card.ImageURL {
		t.Errorf("loaded %q, want %q", ld.url, card.ImageURL)
	}
}

func TestTracker_mount_before_media(t *testing.T) {
	loader := &fakeLoader{}
	tr := NewTracker(loader, testTiming())

	var fired atomic.Int32
	tr.StartSession(Card{ID: "c1", ImageURL: "https://cdn.test/a.jpg"}, false, func() { fired.Add(1) })

	tr.MarkMounted()
	if fired.Load() != 0 {
		t.Fatal("mount alone must not fire onReady")
	}

	loader.lastLoad(t).done(nil)
	waitFor(t, func() bool { return fired.Load() == 1 }, "onReady after media resolved")
}
