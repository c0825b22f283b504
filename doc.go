/*
Package recolor extracts a small palette of representative colors from an
image and recolors the image after the palette has been edited.

Palette extraction bins pixels into a coarse RGB histogram and clusters the
bins with weighted k-means in Lab space. Recoloring moves every color by a
blend of the palette edits, weighted with Gaussian radial basis functions and
scaled down near the edge of the sRGB gamut, through a lookup table with
trilinear interpolation.

Images are decoded and encoded in the common formats, including animated GIF
and PNG whose frames are all recolored with the same mapping.
*/
package recolor

import "fmt"

type RecolorVersion struct {
	Major, Minor, Patch uint
}

func (v RecolorVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v RecolorVersion) Equal(o RecolorVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v RecolorVersion) After(o RecolorVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v RecolorVersion) Before(o RecolorVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = RecolorVersion{0, 3, 0}
