package lab

import (
	"github.com/kovidgoyal/recolor/colorconv"
	"github.com/lucasb-eyer/go-colorful"
)

// Converter maps between 8-bit scale sRGB and Lab. ToRGB must not clip, out of
// gamut colors are detected by their components leaving [0, 255].
type Converter interface {
	ToLab(r, g, b float64) Color
	ToRGB(c Color) (r, g, b float64)
}

// CIELab is CIE L*a*b* relative to the D65 white point, the white point of
// sRGB, so no chromatic adaptation is involved.
type CIELab struct{}

func (CIELab) ToLab(r, g, b float64) Color {
	l, a, bb := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Lab()
	return Color{l * 100, a * 100, bb * 100}
}

func (CIELab) ToRGB(c Color) (r, g, b float64) {
	rgb := colorful.Lab(c[0]/100, c[1]/100, c[2]/100)
	return rgb.R * 255, rgb.G * 255, rgb.B * 255
}

// ICCLab is CIE L*a*b* relative to D50, the profile connection space of ICC
// profiles. sRGB is adapted to it with the Bradford transform.
type ICCLab struct{}

func (ICCLab) ToLab(r, g, b float64) Color {
	l, a, bb := colorconv.SRGBToLab(r, g, b)
	return Color{l, a, bb}
}

func (ICCLab) ToRGB(c Color) (r, g, b float64) {
	return colorconv.LabToSRGB(c[0], c[1], c[2])
}

// Default is the converter used when none is specified.
var Default Converter = CIELab{}

// ByName returns the converter called name, "cielab" or "icc".
func ByName(name string) (Converter, bool) {
	switch name {
	case "", "cielab", "d65":
		return CIELab{}, true
	case "icc", "d50":
		return ICCLab{}, true
	}
	return nil, false
}

// Name is the inverse of ByName. Unknown converters are named by their type.
func Name(c Converter) string {
	switch c.(type) {
	case CIELab, *CIELab:
		return "cielab"
	case ICCLab, *ICCLab:
		return "icc"
	}
	return "custom"
}
