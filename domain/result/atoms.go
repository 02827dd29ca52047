package result

// AtomNames lists the 16 canonical ΦID atom labels in lattice order. Each
// label is sourceTerm + "t" + targetTerm with r=redundant, x/y=unique,
// s=synergistic.
var AtomNames = []string{
	"rtr", "rtx", "rty", "rts",
	"xtr", "xtx", "xty", "xts",
	"ytr", "ytx", "yty", "yts",
	"str", "stx", "sty", "sts",
}

// Atoms maps atom labels to their epoch/sample-averaged values for one pair.
type Atoms map[string]float64

// Total sums every atom, reconstructing the pair's time-lagged mutual
// information.
func (a Atoms) Total() float64 {
	sum := 0.0
	for _, name := range AtomNames {
		sum += a[name]
	}
	return sum
}

// AtomGrid holds one Atoms map per (source-unit, target-unit) pair. Skipped
// pairs hold nil.
type AtomGrid struct {
	units int
	cells [][]Atoms
}

// NewAtomGrid allocates an empty units x units grid.
func NewAtomGrid(units int) *AtomGrid {
	cells := make([][]Atoms, units)
	for i := range cells {
		cells[i] = make([]Atoms, units)
	}
	return &AtomGrid{units: units, cells: cells}
}

// Units reports the grid dimension.
func (g *AtomGrid) Units() int { return g.units }

// Set stores a pair's atom map.
func (g *AtomGrid) Set(i, j int, a Atoms) { g.cells[i][j] = a }

// At returns a pair's atom map, or nil if the pair was skipped.
func (g *AtomGrid) At(i, j int) Atoms { return g.cells[i][j] }
