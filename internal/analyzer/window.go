package analyzer

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// Window selects the taper applied before the FFT.
type Window uint8

const (
	Blackman Window = iota
	BartlettHann
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
	Rectangular
)

var windowNames = map[Window]string{
	Blackman:        "blackman",
	BartlettHann:    "bartletthann",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w Window) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", uint8(w))
}

// ParseWindow converts a case-insensitive window name. Unknown names
// return Blackman and an error.
func ParseWindow(name string) (Window, error) {
	switch strings.ToLower(name) {
	case "blackman", "":
		return Blackman, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Blackman, fmt.Errorf("unknown window function %q", name)
	}
}

// coefficients returns n window coefficients.
func (w Window) coefficients(n int) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	switch w {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Rectangular:
	default:
		window.Blackman(coeffs)
	}
	return coeffs
}
