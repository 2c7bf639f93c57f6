package strip

import (
	"runtime"
	"runtime/debug"
)

// Guard brackets a frame. Between Enter and Exit nothing else may run on the
// processor driving the line.
type Guard interface {
	Enter()
	Exit()
}

// ThreadGuard is the closest a hosted Go program gets to disabling
// interrupts: the goroutine is pinned to its OS thread and the garbage
// collector is suspended until Exit.
type ThreadGuard struct {
	gc int
}

func (g *ThreadGuard) Enter() {
	runtime.LockOSThread()
	g.gc = debug.SetGCPercent(-1)
}

func (g *ThreadGuard) Exit() {
	debug.SetGCPercent(g.gc)
	runtime.UnlockOSThread()
}

// NopGuard does nothing. It is meant for simulated lines.
type NopGuard struct{}

func (NopGuard) Enter() {}
func (NopGuard) Exit()  {}
