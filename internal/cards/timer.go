package cards

import "time"

// timerSet owns every outstanding one-shot timer of a readiness session so a
// reset can cancel all of them in a single step. Not safe for concurrent use;
// the owning session's mutex guards it.
type timerSet struct {
	timers []*time.Timer
}

// after schedules f on its own goroutine once d elapses.
func (s *timerSet) after(d time.Duration, f func()) {
	s.timers = append(s.timers, time.AfterFunc(d, f))
}

// cancelAll stops every outstanding timer. A timer that already fired is
// stopped harmlessly; its callback is fenced by the session generation.
func (s *timerSet) cancelAll() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = s.timers[:0]
}
