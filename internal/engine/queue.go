package engine

import "github.com/talgya/mini-city/internal/city"

// FrontierCapacity bounds every flood fill.
const FrontierCapacity = 1024

// Frontier is the fixed-capacity FIFO shared by the power and traffic
// flood fills. Pushes beyond capacity are dropped.
type Frontier struct {
	buf  [FrontierCapacity]city.Point
	head int
	n    int
}

func (f *Frontier) Reset() {
	f.head, f.n = 0, 0
}

// Push appends p. It reports false and drops p when the queue is full.
func (f *Frontier) Push(p city.Point) bool {
	if f.n == FrontierCapacity {
		return false
	}
	f.buf[(f.head+f.n)%FrontierCapacity] = p
	f.n++
	return true
}

// Pop removes the oldest point.
func (f *Frontier) Pop() (city.Point, bool) {
	if f.n == 0 {
		return city.Point{}, false
	}
	p := f.buf[f.head]
	f.head = (f.head + 1) % FrontierCapacity
	f.n--
	return p, true
}

func (f *Frontier) Len() int { return f.n }

// Drain pops points in order and hands them to visit until the queue is
// empty or visit returns false. visit may push more points.
func (f *Frontier) Drain(visit func(p city.Point) bool) {
	for {
		p, ok := f.Pop()
		if !ok || !visit(p) {
			return
		}
	}
}

// Neighbour offsets in the order the flood fills try them.
var (
	stepUp    = city.Point{X: 0, Y: -1}
	stepRight = city.Point{X: 1, Y: 0}
	stepDown  = city.Point{X: 0, Y: 1}
	stepLeft  = city.Point{X: -1, Y: 0}
)

func idx(x, y int) int { return y*city.Width + x }
