// Package biquad implements second-order IIR sections and the designs used
// by filter nodes.
package biquad

import "math"

// Coefficients of the section normalized to a0 = 1.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section is a biquad in Direct Form II Transposed.
type Section struct {
	Coefficients
	d0, d1 float64
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y
	return y
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// LowShelf designs RBJ low shelf with gain in dB.
func LowShelf(freq, gainDB, q float64, sampleRate int) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cw + beta)
	b1 := 2 * a * ((a - 1) - (a+1)*cw)
	b2 := a * ((a + 1) - (a-1)*cw - beta)
	a0 := (a + 1) + (a-1)*cw + beta
	a1 := -2 * ((a - 1) + (a+1)*cw)
	a2 := (a + 1) + (a-1)*cw - beta
	return normalize(b0, b1, b2, a0, a1, a2)
}

// Resonator designs a two-pole resonator at freq. Its impulse response is
// a sinusoid decaying with time constant tau seconds, scaled by gain. Zero
// tau makes the section silent.
func Resonator(freq, tau, gain float64, sampleRate int) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok || tau <= 0 {
		return Coefficients{}
	}
	r := Radius(tau, sampleRate)
	return Coefficients{
		B0: gain * math.Sin(w0),
		A1: -2 * r * math.Cos(w0),
		A2: r * r,
	}
}

// Radius returns pole radius of the resonator which decays with time
// constant tau seconds.
func Radius(tau float64, sampleRate int) float64 {
	if tau <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1 / (tau * float64(sampleRate)))
}

var passthrough = Coefficients{B0: 1}

// normalizedW0 returns angular frequency. Frequencies at or above Nyquist
// are invalid.
func normalizedW0(freq float64, sampleRate int) (float64, bool) {
	if freq <= 0 || sampleRate <= 0 || freq >= float64(sampleRate)/2 {
		return 0, false
	}
	return 2 * math.Pi * freq / float64(sampleRate), true
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
