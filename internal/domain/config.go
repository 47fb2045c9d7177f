package domain

// Default simulation parameters, matching the analysis this engine replaces.
const (
	DefaultNumSimulations = 5000
)

// Default risk-metric configuration.
var (
	// DefaultDrawdownThresholds are expressed in the same unit as outcomes
	// (R-multiples), ordered shallow to deep.
	DefaultDrawdownThresholds = []float64{-3, -5, -10}

	// DefaultVaRLevels are the tail probabilities for VaR/CVaR.
	DefaultVaRLevels = []float64{0.05, 0.01}
)

// SimConfig holds the statistical configuration of one simulation batch.
// Execution concerns (worker count, curve retention, progress reporting)
// live in simulation.RunnerOptions, not here: two configs that differ only
// in execution settings must produce bit-identical statistics.
type SimConfig struct {
	// NumSimulations is the number of bootstrap runs K.
	NumSimulations int

	// TradesPerSim is the number of draws N per run.
	// Zero means "use the size of the outcome set".
	TradesPerSim int

	// Seed is the base seed. Each run derives its own sub-seed from
	// (Seed, run index), so results do not depend on execution order.
	Seed int64

	// DrawdownThresholds are negative values t for which the engine reports
	// P(max_drawdown < t). Must be strictly decreasing (shallow to deep).
	DrawdownThresholds []float64

	// VaRLevels are tail probabilities in (0,1) for VaR and CVaR.
	VaRLevels []float64
}

// DefaultSimConfig returns a SimConfig with the standard parameters.
func DefaultSimConfig(seed int64) SimConfig {
	return SimConfig{
		NumSimulations:     DefaultNumSimulations,
		Seed:               seed,
		DrawdownThresholds: append([]float64(nil), DefaultDrawdownThresholds...),
		VaRLevels:          append([]float64(nil), DefaultVaRLevels...),
	}
}

// TradesFor resolves the effective number of draws per run for an outcome
// set of size m.
func (c SimConfig) TradesFor(m int) int {
	if c.TradesPerSim > 0 {
		return c.TradesPerSim
	}
	return m
}

// Validate checks the configuration. Returns ValidationError on the first
// violation found.
func (c SimConfig) Validate() error {
	if c.NumSimulations <= 0 {
		return &ValidationError{Field: "num_simulations", Reason: "must be positive"}
	}
	if c.TradesPerSim < 0 {
		return &ValidationError{Field: "trades_per_sim", Reason: "must be positive"}
	}
	prev := 0.0
	for i, t := range c.DrawdownThresholds {
		if t >= 0 {
			return &ValidationError{Field: "drawdown_thresholds", Reason: "thresholds must be negative"}
		}
		if i > 0 && t >= prev {
			return &ValidationError{Field: "drawdown_thresholds", Reason: "thresholds must be strictly decreasing"}
		}
		prev = t
	}
	for _, p := range c.VaRLevels {
		if p <= 0 || p >= 1 {
			return &ValidationError{Field: "var_levels", Reason: "levels must be in (0,1)"}
		}
	}
	return nil
}
