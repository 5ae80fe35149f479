package engine

// GraphLength is how many samples each history series keeps.
const GraphLength = 64

// GraphInvalid marks an unused sample.
const GraphInvalid int8 = -128

const (
	graphMin      = -64
	graphMax      = 63
	graphMaxShift = 62
)

// Graph is a rolling series of scaled samples. When a value does not fit,
// the series doubles its scale and halves what it already holds.
type Graph struct {
	Values [GraphLength]int8 `json:"values"`
	Shift  int               `json:"shift"` // stored value = real value >> Shift
	Pos    int               `json:"pos"`   // next write index
}

func (g *Graph) Reset() {
	for i := range g.Values {
		g.Values[i] = GraphInvalid
	}
	g.Shift = 0
	g.Pos = 0
}

// Add appends a sample, rescaling the series first if needed.
func (g *Graph) Add(v int) {
	for g.Shift < graphMaxShift {
		scaled := v >> g.Shift
		if scaled >= graphMin && scaled <= graphMax {
			break
		}
		for i, s := range g.Values {
			if s != GraphInvalid {
				g.Values[i] = s >> 1
			}
		}
		g.Shift++
	}
	g.Values[g.Pos] = int8(v >> g.Shift)
	g.Pos = (g.Pos + 1) % GraphLength
}

// Samples returns the valid samples oldest first, scaled back up.
func (g *Graph) Samples() []int {
	out := make([]int, 0, GraphLength)
	for i := 0; i < GraphLength; i++ {
		s := g.Values[(g.Pos+i)%GraphLength]
		if s == GraphInvalid {
			continue
		}
		out = append(out, int(s)<<g.Shift)
	}
	return out
}

// Graphs holds the five history series.
type Graphs struct {
	Population  Graph `json:"population"`
	Residential Graph `json:"residential"`
	Commercial  Graph `json:"commercial"`
	Industrial  Graph `json:"industrial"`
	Funds       Graph `json:"funds"`
}

func (g *Graphs) Reset() {
	g.Population.Reset()
	g.Residential.Reset()
	g.Commercial.Reset()
	g.Industrial.Reset()
	g.Funds.Reset()
}
