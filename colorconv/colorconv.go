package colorconv

import (
	"math"
)

// This package converts between 8-bit encoded sRGB (D65) and CIE L*a*b*
// defined relative to the D50 white point, the profile connection space of
// ICC color management. Chromatic adaptation uses the Bradford transform and
// is fused with the XYZ <-> linear sRGB matrices so that each direction needs
// a single matrix multiply.
//
// Unlike most converters nothing here clips: out of gamut Lab colors produce
// RGB components outside [0, 255], which is what a gamut test needs to see.

type Vec3 [3]float64
type Mat3 [3][3]float64

// Standard reference whites (CIE XYZ) normalized so Y = 1.0
// Note that whiteD50 uses Z value from ICC spec rather that CIE spec.
var (
	whiteD50 = Vec3{0.96422, 1.00000, 0.82491}
	whiteD65 = Vec3{0.95047, 1.00000, 1.08883}
)

var (
	bradford = Mat3{
		{0.8951, 0.2664, -0.1614},
		{-0.7502, 1.7135, 0.0367},
		{0.0389, -0.0685, 1.0296},
	}
	invBradford = Mat3{
		{0.9869929, -0.1470543, 0.1599627},
		{0.4323053, 0.5183603, 0.0492912},
		{-0.0085287, 0.0400428, 0.9684867},
	}
)

// sRGB (linear) transform matrix from CIE XYZ (D65)
var srgbFromXYZ = Mat3{
	{3.2406, -1.5372, -0.4986},
	{-0.9689, 1.8758, 0.0415},
	{0.0557, -0.2040, 1.0570},
}

var (
	xyzD50ToLinearSRGB Mat3
	linearSRGBToXYZD50 Mat3
)

func init() {
	adapt := chromaticAdaptationMatrix(whiteD50, whiteD65)
	xyzD50ToLinearSRGB = mulMat3(srgbFromXYZ, adapt)
	linearSRGBToXYZD50 = invertMat3(xyzD50ToLinearSRGB)
}

// SRGBToLab converts encoded sRGB components in [0, 255] to Lab (D50). Values
// outside that range are extrapolated.
func SRGBToLab(r, g, b float64) (L, a, bb float64) {
	x, y, z := mulMat3Vec(linearSRGBToXYZD50, Vec3{
		srgbToLinear(r / 255), srgbToLinear(g / 255), srgbToLinear(b / 255)})
	return XYZToLab_D50(x, y, z)
}

// LabToSRGB converts Lab (D50) to encoded sRGB components on the [0, 255]
// scale without any clipping or gamut mapping.
func LabToSRGB(L, a, b float64) (r, g, bl float64) {
	rl, gl, bll := LabToLinearRGB(L, a, b)
	return 255 * linearToSRGB(rl), 255 * linearToSRGB(gl), 255 * linearToSRGB(bll)
}

// LabToLinearRGB converts Lab (D50) to linear sRGB (D65) in the [0, 1] scale,
// possibly outside it.
func LabToLinearRGB(L, a, b float64) (r, g, bl float64) {
	X, Y, Z := labToXYZ_D50(L, a, b)
	return mulMat3Vec(xyzD50ToLinearSRGB, Vec3{X, Y, Z})
}

func finv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// labToXYZ_D50 converts Lab (D50) to CIE XYZ values relative to the D50 whitepoint (Y=1).
func labToXYZ_D50(L, a, b float64) (X, Y, Z float64) {
	var fy = (L + 16.0) / 116.0
	var fx = fy + (a / 500.0)
	var fz = fy - (b / 200.0)
	return finv(fx) * whiteD50[0], finv(fy) * whiteD50[1], finv(fz) * whiteD50[2]
}

func ff(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// XYZToLab_D50 converts XYZ (relative to D50, Y=1) into CIELAB (D50).
func XYZToLab_D50(X, Y, Z float64) (L, a, b float64) {
	fx := ff(X / whiteD50[0])
	fy := ff(Y / whiteD50[1])
	fz := ff(Z / whiteD50[2])
	L = 116.0*fy - 16.0
	a = 500.0 * (fx - fy)
	b = 200.0 * (fy - fz)
	return
}

// srgbToLinear removes the sRGB companding. It is odd-symmetric so that
// components slightly outside [0, 1] stay continuous.
func srgbToLinear(c float64) float64 {
	if c < 0 {
		return -srgbToLinear(-c)
	}
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSRGB applies the sRGB companding, odd-symmetric like srgbToLinear.
func linearToSRGB(c float64) float64 {
	if c < 0 {
		return -linearToSRGB(-c)
	}
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

func mulMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := range 3 {
		for j := range 3 {
			sum := 0.0
			for k := range 3 {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func mulMat3Vec(m Mat3, v Vec3) (x, y, z float64) {
	x = m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2]
	y = m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2]
	z = m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2]
	return
}

// invertMat3 inverts m using the adjugate. The matrices inverted here are
// well conditioned color transforms.
func invertMat3(m Mat3) Mat3 {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	var out Mat3
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return out
}

// chromaticAdaptationMatrix constructs a 3x3 matrix that adapts XYZ values
// from sourceWhite to targetWhite using the Bradford method.
func chromaticAdaptationMatrix(sourceWhite, targetWhite Vec3) Mat3 {
	srcL, srcM, srcS := mulMat3Vec(bradford, sourceWhite)
	tgtL, tgtM, tgtS := mulMat3Vec(bradford, targetWhite)
	diag := Mat3{
		{tgtL / srcL, 0, 0},
		{0, tgtM / srcM, 0},
		{0, 0, tgtS / srcS},
	}
	// adapt = invBradford * diag * bradford
	return mulMat3(invBradford, mulMat3(diag, bradford))
}
