package palette

import (
	"fmt"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/types"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

// blocks returns an image made of vertical stripes, one per color, each
// stripe width pixels wide.
func blocks(width, height int, colors ...nrgb.Color) *nrgb.Image {
	img := nrgb.New(image.Rect(0, 0, width*len(colors), height))
	for y := range height {
		for x := range width * len(colors) {
			img.SetNRGB(x, y, colors[x/width])
		}
	}
	return img
}

func gradient(width, height int) *nrgb.Image {
	img := nrgb.New(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8(x * 255 / (width - 1))
			img.SetNRGB(x, y, nrgb.Color{R: v, G: v, B: uint8(y)})
		}
	}
	return img
}

var five = []nrgb.Color{
	{R: 20, G: 20, B: 20},
	{R: 30, G: 40, B: 200},
	{R: 250, G: 250, B: 250},
	{R: 200, G: 30, B: 30},
	{R: 30, G: 180, B: 40},
}

func TestExtractDistinctColors(t *testing.T) {
	for _, conv := range []lab.Converter{lab.CIELab{}, lab.ICCLab{}} {
		e := New(types.DefaultConfig(), conv)
		p, stats, err := e.Extract(blocks(7, 5, five...))
		require.NoError(t, err)
		require.Len(t, p, 5)
		require.Equal(t, 5, stats.Bins)
		require.True(t, stats.Converged)
		require.True(t, p.IsMonotonic())
		got := p.RGB(conv)
		for _, want := range five {
			require.Contains(t, got, want)
		}
		require.Equal(t, five[2], got[0])
		require.Equal(t, five[0], got[4])
	}
}

func TestExtractIsSortedForAnyImage(t *testing.T) {
	cfg := types.DefaultConfig()
	for _, workers := range []int{0, 1, 3} {
		cfg.Workers = workers
		p, stats, err := New(cfg, nil).Extract(gradient(64, 48))
		require.NoError(t, err)
		require.Len(t, p, cfg.K)
		require.True(t, p.IsMonotonic(), "%v", p)
		require.Greater(t, stats.Bins, cfg.K)
	}
}

func TestExtractIsDeterministicAcrossWorkers(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Workers = 1
	a, _, err := New(cfg, nil).Extract(gradient(100, 37))
	require.NoError(t, err)
	cfg.Workers = 4
	b, _, err := New(cfg, nil).Extract(gradient(100, 37))
	require.NoError(t, err)
	if diff := cmp.Diff(a, b, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("palettes differ between worker counts:\n%s", diff)
	}
}

func TestExtractIsRepeatable(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Workers = 6
	img := gradient(97, 61)
	first, _, err := New(cfg, nil).Extract(img)
	require.NoError(t, err)
	for range 8 {
		again, _, err := New(cfg, nil).Extract(img)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestExtractSolidGray(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.K = 1
	img := blocks(20, 20, nrgb.Color{R: 128, G: 128, B: 128})
	p, _, err := New(cfg, lab.CIELab{}).Extract(img)
	require.NoError(t, err)
	want := Palette{lab.CIELab{}.ToLab(128, 128, 128)}
	if diff := cmp.Diff(want, p, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("unexpected palette:\n%s", diff)
	}

	cfg.K = 2
	_, _, err = New(cfg, lab.CIELab{}).Extract(img)
	require.ErrorIs(t, err, types.ErrInsufficientBins)
}

func TestExtractErrors(t *testing.T) {
	_, _, err := New(types.DefaultConfig(), nil).Extract(nrgb.New(image.Rectangle{}))
	require.ErrorIs(t, err, types.ErrEmptyImage)
	cfg := types.DefaultConfig()
	cfg.HistogramBins = 7
	_, _, err = New(cfg, nil).Extract(gradient(4, 4))
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestIterationCap(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.K = 2
	cfg.MaxIterations = 1
	p, stats, err := New(cfg, nil).Extract(gradient(256, 1))
	require.NoError(t, err)
	require.Len(t, p, 2)
	require.Equal(t, 1, stats.Iterations)
	require.False(t, stats.Converged)
}

func TestLloydFixedPoint(t *testing.T) {
	e := New(types.DefaultConfig(), nil)
	img := gradient(80, 60)
	p, _, err := e.Extract(img)
	require.NoError(t, err)
	samples, err := e.bin(img)
	require.NoError(t, err)
	centers := []lab.Color(p.Clone())
	assign(samples, centers)
	require.False(t, update(samples, centers, e.cfg.EPS))
	for i := range centers {
		require.LessOrEqual(t, centers[i].SqrDist(p[i]), e.cfg.EPS)
	}
}

func TestBinning(t *testing.T) {
	e := New(types.DefaultConfig(), lab.CIELab{})
	img := blocks(3, 2, nrgb.Color{R: 0, G: 0, B: 0}, nrgb.Color{R: 15, G: 15, B: 15}, nrgb.Color{R: 255, G: 0, B: 0})
	samples, err := e.bin(img)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	// black and 15,15,15 share the first bin, red comes later in r major order
	require.Equal(t, 12.0, samples[0].weight)
	require.Equal(t, 6.0, samples[1].weight)
	mean := lab.CIELab{}.ToLab(0, 0, 0).Add(lab.CIELab{}.ToLab(15, 15, 15)).Div(2)
	require.InDelta(t, mean.L(), samples[0].color.L(), 1e-9)
}

func TestSeedingPopsSmallestWeight(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.K = 2
	e := New(cfg, nil)
	samples := []sample{
		{color: lab.Color{90, 0, 0}, weight: 100},
		{color: lab.Color{50, 0, 0}, weight: 1},
		{color: lab.Color{10, 0, 0}, weight: 50},
		{color: lab.Color{52, 0, 0}, weight: 40},
	}
	centers, err := e.seed(samples)
	require.NoError(t, err)
	// the least populated bin is taken first, which is unlike k-means++
	require.Equal(t, lab.Color{50, 0, 0}, centers[0])
	// its close neighbour is suppressed almost to zero weight and picked next
	require.Equal(t, lab.Color{52, 0, 0}, centers[1])
	// seeding works on a copy
	require.Equal(t, 1.0, samples[1].weight)
	require.Equal(t, 40.0, samples[3].weight)
}

func TestAssignTieBreak(t *testing.T) {
	samples := []sample{
		{color: lab.Color{50, 10, 0}, weight: 1},
		{color: lab.Color{0, 0, 0}, weight: 1},
		{color: lab.Color{50, 0, 0}, weight: 1},
	}
	centers := []lab.Color{{50, 5, 0}, {50, 15, 0}, {50, 5, 0}}
	assign(samples, centers)
	// equidistant from centers 0, 1 and 2, the first one wins
	require.Equal(t, 0, samples[0].nearest)
	// no center is strictly closer than the origin
	require.Equal(t, -1, samples[1].nearest)
	require.Equal(t, 0, samples[2].nearest)
	before := centers[1]
	update(samples, centers, 1e-6)
	// centers without samples keep their position
	require.Equal(t, before, centers[1])
	require.Equal(t, lab.Color{50, 5, 0}, centers[0])
}

func TestIsMonotonicAndEdit(t *testing.T) {
	p := Palette{{90, 1, 2}, {70, 3, 4}, {50, 5, 6}, {30, 7, 8}, {10, 9, 10}}
	require.True(t, p.IsMonotonic())
	require.False(t, Palette{{10, 0, 0}, {20, 0, 0}}.IsMonotonic())
	require.True(t, Palette{}.IsMonotonic())

	testCases := []struct {
		idx  int
		c    lab.Color
		want Palette
	}{
		{2, lab.Color{80, 0, 0}, Palette{{90, 1, 2}, {80, 3, 4}, {80, 0, 0}, {30, 7, 8}, {10, 9, 10}}},
		{2, lab.Color{20, 0, 0}, Palette{{90, 1, 2}, {70, 3, 4}, {20, 0, 0}, {20, 7, 8}, {10, 9, 10}}},
		{0, lab.Color{5, 1, 1}, Palette{{5, 1, 1}, {5, 3, 4}, {5, 5, 6}, {5, 7, 8}, {5, 9, 10}}},
		{4, lab.Color{95, 1, 1}, Palette{{95, 1, 2}, {95, 3, 4}, {95, 5, 6}, {95, 7, 8}, {95, 1, 1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.c.String(), func(t *testing.T) {
			got, err := p.Edit(tc.idx, tc.c)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.True(t, got.IsMonotonic())
		})
	}
	require.Equal(t, lab.Color{90, 1, 2}, p[0], "Edit must not modify the receiver")
	_, err := p.Edit(5, lab.Color{})
	require.Error(t, err)
	require.ErrorIs(t, p.CheckSize(4), types.ErrPaletteSize)
	require.NoError(t, p.CheckSize(5))
}

func TestHex(t *testing.T) {
	testCases := []struct {
		in   string
		want nrgb.Color
		ok   bool
	}{
		{"#ff8000", nrgb.Color{R: 255, G: 128}, true},
		{"FF8000", nrgb.Color{R: 255, G: 128}, true},
		{"#f80", nrgb.Color{R: 255, G: 136}, true},
		{"#ff80", nrgb.Color{}, false},
		{"#gg8000", nrgb.Color{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseHex(tc.in)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
	conv := lab.CIELab{}
	p, err := FromHex(conv, "#123456", "#fedcba")
	require.NoError(t, err)
	require.Equal(t, []string{"#123456", "#fedcba"}, p.Hex(conv))
	_, err = FromHex(conv, "nope")
	require.Error(t, err)
}
