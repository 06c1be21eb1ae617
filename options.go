package audiograph

import (
	"pipelined.dev/audiograph/log"
)

// Option configures engine.
type Option func(*Engine)

// WithLogger sets logger for engine. By default log.GetLogger is used.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMeter sets the component key for engine metrics. Engines with the
// same key share counters.
func WithMeter(component interface{}) Option {
	return func(e *Engine) {
		e.component = component
	}
}

// WithDeadlineTolerance sets the ratio of block period that processing is
// allowed to take before a deadline miss is counted. Default is 1.
func WithDeadlineTolerance(ratio float64) Option {
	return func(e *Engine) {
		if ratio > 0 {
			e.tolerance = ratio
		}
	}
}
