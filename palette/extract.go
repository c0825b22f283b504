package palette

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/nrgb"
	"github.com/kovidgoyal/recolor/types"
	"github.com/tliron/commonlog"
)

var _ = fmt.Print

var log = commonlog.GetLogger("recolor.palette")

// sample is the aggregate of one non-empty histogram bin.
type sample struct {
	color  lab.Color
	weight float64
	// index of the nearest center, -1 when the bin is closer to the Lab
	// origin than to every center
	nearest int
}

// Stats describes one extraction.
type Stats struct {
	Bins       int
	Iterations int
	Converged  bool
}

type Extractor struct {
	cfg  types.Config
	conv lab.Converter
}

func New(cfg types.Config, conv lab.Converter) *Extractor {
	if conv == nil {
		conv = lab.Default
	}
	return &Extractor{cfg: cfg, conv: conv}
}

// Extract returns exactly K colors sorted by descending lightness.
func (e *Extractor) Extract(img *nrgb.Image) (ans Palette, stats Stats, err error) {
	if err = e.cfg.Validate(); err != nil {
		return
	}
	if img.Rect.Empty() {
		return nil, stats, types.ErrEmptyImage
	}
	samples, err := e.bin(img)
	if err != nil {
		return
	}
	stats.Bins = len(samples)
	log.Debugf("%d non-empty bins in a %dx%d image", len(samples), img.Rect.Dx(), img.Rect.Dy())
	centers, err := e.seed(samples)
	if err != nil {
		return
	}
	stats.Iterations, stats.Converged = e.lloyd(samples, centers)
	if !stats.Converged {
		log.Warningf("k-means did not converge in %d iterations", stats.Iterations)
	} else {
		log.Debugf("k-means converged in %d iterations", stats.Iterations)
	}
	SortByLightness(centers)
	return Palette(centers), stats, nil
}

// SortByLightness sorts colors by descending L, keeping the order of equally
// light colors.
func SortByLightness(colors []lab.Color) {
	slices.SortStableFunc(colors, func(a, b lab.Color) int { return cmp.Compare(b.L(), a.L()) })
}

type histogram struct {
	sums   []lab.Color
	counts []int
}

func new_histogram(n int) *histogram {
	return &histogram{sums: make([]lab.Color, n*n*n), counts: make([]int, n*n*n)}
}

func (h *histogram) merge(o *histogram) {
	for i, c := range o.counts {
		if c > 0 {
			h.counts[i] += c
			h.sums[i] = h.sums[i].Add(o.sums[i])
		}
	}
}

// bin accumulates the mean Lab color and pixel count of every cell of a
// bins^3 grid over RGB. Rows are split between workers, each with its own
// histogram. The partial histograms are merged in row order so that a given
// worker count always produces the same sums. Samples are emitted in r, g, b
// major order.
func (e *Extractor) bin(img *nrgb.Image) ([]sample, error) {
	n, width := e.cfg.HistogramBins, e.cfg.HistogramBinWidth()
	type partial struct {
		start int
		h     *histogram
	}
	var partials []partial
	var mutex sync.Mutex
	err := types.RunInParallel(e.cfg.Workers, 0, img.Rect.Dy(), func(start, limit int) {
		h := new_histogram(n)
		img.Pixels(start, limit, func(px []uint8) {
			idx := (int(px[0])/width*n+int(px[1])/width)*n + int(px[2])/width
			h.sums[idx] = h.sums[idx].Add(e.conv.ToLab(float64(px[0]), float64(px[1]), float64(px[2])))
			h.counts[idx]++
		})
		mutex.Lock()
		defer mutex.Unlock()
		partials = append(partials, partial{start, h})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(partials, func(a, b partial) int { return cmp.Compare(a.start, b.start) })
	total := new_histogram(n)
	for _, p := range partials {
		total.merge(p.h)
	}
	ans := make([]sample, 0, 256)
	for i, c := range total.counts {
		if c > 0 {
			ans = append(ans, sample{color: total.sums[i].Div(float64(c)), weight: float64(c), nearest: -1})
		}
	}
	return ans, nil
}

// seed picks the K initial centers. Each round stable sorts the remaining
// bins by descending weight and takes the last one, the bin with the smallest
// weight, then suppresses the weight of bins near it.
func (e *Extractor) seed(samples []sample) ([]lab.Color, error) {
	k := e.cfg.K
	if len(samples) < k {
		return nil, fmt.Errorf("%w: %d distinct bins for %d colors", types.ErrInsufficientBins, len(samples), k)
	}
	remaining := slices.Clone(samples)
	delta2 := e.cfg.SeedDelta * e.cfg.SeedDelta
	centers := make([]lab.Color, 0, k)
	for range k {
		slices.SortStableFunc(remaining, func(a, b sample) int { return cmp.Compare(b.weight, a.weight) })
		last := len(remaining) - 1
		seed := remaining[last].color
		remaining = remaining[:last]
		centers = append(centers, seed)
		for i := range remaining {
			d2 := remaining[i].color.SqrDist(seed)
			remaining[i].weight *= 1 - math.Exp(-d2/delta2)
		}
	}
	return centers, nil
}

// assign sets the nearest center of every sample. The starting best distance
// is the squared distance to the Lab origin and only strictly closer centers
// win, so ties go to the lowest index.
func assign(samples []sample, centers []lab.Color) {
	for i := range samples {
		s := &samples[i]
		best, idx := s.color.SqrNorm(), -1
		for j, c := range centers {
			if d := s.color.SqrDist(c); d < best {
				best, idx = d, j
			}
		}
		s.nearest = idx
	}
}

// update moves every center to the weighted mean of its samples and reports
// whether any center moved more than eps (squared). Centers without samples
// stay where they are.
func update(samples []sample, centers []lab.Color, eps float64) (moved bool) {
	sums := make([]lab.Color, len(centers))
	weights := make([]float64, len(centers))
	for _, s := range samples {
		if s.nearest >= 0 {
			sums[s.nearest] = sums[s.nearest].Add(s.color.Scale(s.weight))
			weights[s.nearest] += s.weight
		}
	}
	for j := range centers {
		if weights[j] <= 0 {
			continue
		}
		c := sums[j].Div(weights[j])
		if c.SqrDist(centers[j]) > eps {
			centers[j] = c
			moved = true
		}
	}
	return
}

// lloyd runs weighted Lloyd iterations on centers in place until no center
// moves or the iteration cap is reached.
func (e *Extractor) lloyd(samples []sample, centers []lab.Color) (iterations int, converged bool) {
	for iterations < e.cfg.MaxIterations {
		iterations++
		assign(samples, centers)
		if !update(samples, centers, e.cfg.EPS) {
			return iterations, true
		}
	}
	return iterations, false
}
