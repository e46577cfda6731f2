package video

// bendDecay is how much the bend burst loses per frame.
const bendDecay = 0.04

// bendFrames is the number of frames a full burst lasts.
const bendFrames = 25

// Bend is a transient excitation triggered by the user. It starts at 1 and
// decays linearly to 0 over bendFrames frames. The zero value is inactive.
type Bend struct {
	ticks  int
	active bool
}

// Trigger sets the bend to full strength. Retriggering restarts the decay.
func (b *Bend) Trigger() {
	b.ticks = 0
	b.active = true
}

// Tick advances the decay by one frame.
func (b *Bend) Tick() {
	if !b.active {
		return
	}
	b.ticks++
	if b.ticks >= bendFrames {
		b.active = false
	}
}

// Value returns the current strength in [0, 1].
func (b *Bend) Value() float64 {
	if !b.active {
		return 0
	}
	return max(0, 1-float64(b.ticks)*bendDecay)
}

// Active reports whether the bend has not fully decayed.
func (b *Bend) Active() bool {
	return b.active
}
