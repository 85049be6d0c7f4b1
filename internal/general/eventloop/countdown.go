package eventloop

import "time"

// Countdown is a cancellable one-second ticker owned by a loop task. All methods
// must be called on the loop goroutine.
type Countdown struct {
	loop      *Loop
	remaining int
	timer     Timer
	gen       uint64
}

func NewCountdown(loop *Loop) *Countdown {
	return &Countdown{loop: loop}
}

// Start cancels any running countdown and starts a new one from seconds.
// onTick is called with seconds immediately and then once per tick down to 0.
func (c *Countdown) Start(seconds int, onTick func(remaining int)) {
	c.Cancel()
	if seconds <= 0 {
		onTick(0)
		return
	}
	c.remaining = seconds
	c.arm(c.gen, onTick)
	onTick(seconds)
}

func (c *Countdown) arm(gen uint64, onTick func(int)) {
	c.timer = c.loop.AfterFunc(time.Second, func() {
		if gen != c.gen {
			return
		}
		c.remaining--
		left := c.remaining
		if left <= 0 {
			c.Cancel()
		} else {
			c.arm(gen, onTick)
		}
		onTick(left)
	})
}

// Cancel stops the countdown; pending ticks are discarded.
func (c *Countdown) Cancel() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.remaining = 0
}

func (c *Countdown) Active() bool { return c.timer != nil }

func (c *Countdown) Remaining() int { return c.remaining }
