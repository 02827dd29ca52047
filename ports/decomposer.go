package ports

// Decomposer splits the time-lagged mutual information between two (possibly
// multivariate) sequences into the 16 canonical ΦID atoms. Inputs are
// samples-major; the returned map holds one local (per-sample) value array per
// atom label, each of length samples-lag.
type Decomposer interface {
	Decompose(x, y [][]float64, lag int) (map[string][]float64, error)
}
