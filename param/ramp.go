package param

import "math"

// ramp is a monotonic transition from start to target over length samples.
// Values are computed from the start point rather than accumulated, so
// rounding errors don't build up and the final sample is exactly target.
type ramp struct {
	curve   Curve
	current float64
	start   float64
	target  float64
	step    float64 // increment for linear, log of ratio for logarithmic
	length  int
	pos     int
}

func (r *ramp) reset(v float64) {
	r.current = v
	r.start = v
	r.target = v
	r.step = 0
	r.length = 0
	r.pos = 0
}

// begin starts a new ramp from the current value. Zero length applies the
// target immediately.
func (r *ramp) begin(target float64, length int) {
	if length <= 0 || target == r.current {
		r.reset(target)
		return
	}
	r.start = r.current
	r.target = target
	r.length = length
	r.pos = 0
	switch r.curve {
	case Logarithmic:
		r.step = math.Log(target/r.start) / float64(length)
	default:
		r.step = (target - r.start) / float64(length)
	}
}

func (r *ramp) active() bool {
	return r.pos < r.length
}

func (r *ramp) next() float64 {
	if r.pos >= r.length {
		return r.current
	}
	r.pos++
	if r.pos == r.length {
		r.current = r.target
		return r.current
	}

	var v float64
	switch r.curve {
	case Logarithmic:
		v = r.start * math.Exp(r.step*float64(r.pos))
	default:
		v = r.start + r.step*float64(r.pos)
	}

	// keep monotonic and never pass the target
	if r.target > r.start {
		v = math.Min(math.Max(v, r.current), r.target)
	} else {
		v = math.Max(math.Min(v, r.current), r.target)
	}
	r.current = v
	return v
}
