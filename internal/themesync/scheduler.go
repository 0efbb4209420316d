// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package themesync

import "time"

// DefaultFrameInterval approximates one frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// TimerScheduler is a FrameScheduler that runs callbacks after a fixed
// interval on their own goroutine.
type TimerScheduler struct {
	Interval time.Duration
}

// RequestFrame schedules fn after the interval.
func (s TimerScheduler) RequestFrame(fn func()) (cancel func()) {
	d := s.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
