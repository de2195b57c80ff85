package checkout

import "time"

const (
	// OTPValiditySeconds is the countdown started when an OTP is sent
	OTPValiditySeconds = 300
	// resendThreshold is the remaining time at or below which resend is offered
	resendThreshold = 240
)

// TickerFunc starts a repeating ticker and returns its channel and stop func
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// startTickerLocked runs the one-second countdown ticker unless it already runs
func (f *Flow) startTickerLocked() {
	if f.stopTick != nil {
		return
	}
	f.tickGen++
	gen := f.tickGen
	c, stop := f.newTicker(time.Second)
	done := make(chan struct{})
	f.stopTick = func() {
		stop()
		close(done)
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-c:
				f.tickFrom(gen)
			}
		}
	}()
}

func (f *Flow) stopTickerLocked() {
	if f.stopTick != nil {
		f.stopTick()
		f.stopTick = nil
	}
}

// tick advances the countdown by one second
func (f *Flow) tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickLocked()
}

// tickFrom ignores ticks from a ticker that was already replaced
func (f *Flow) tickFrom(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.tickGen {
		return
	}
	f.tickLocked()
}

func (f *Flow) tickLocked() {
	if f.closed || f.stopTick == nil {
		return
	}
	if f.countdown > 0 {
		f.countdown--
	}
	if f.countdown == 0 {
		f.stopTickerLocked()
	}
}

func (f *Flow) canResendLocked() bool {
	return f.step == StepOTP && !f.loading && f.countdown <= resendThreshold
}
