package recolor

import (
	"fmt"
	"image"
	colorpalette "image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/kettek/apng"
)

var _ = fmt.Print

type Frame struct {
	Number      uint
	X, Y        int
	Image       image.Image `json:"-"`
	Delay       time.Duration
	ComposeOnto uint
	Replace     bool // Do a simple pixel replacement rather than a full alpha blend when compositing this frame
}

type Image struct {
	Frames       []*Frame
	Metadata     *Metadata
	LoopCount    uint        // 0 means loop forever, 1 means loop once, ...
	DefaultImage image.Image `json:"-"` // a "default image" for an animation that is not part of the actual animation
}

// Representative returns the image that stands for the whole file: the
// default image of an animation if it has one, else the first frame.
func (self *Image) Representative() image.Image {
	if self.DefaultImage != nil {
		return self.DefaultImage
	}
	if len(self.Frames) > 0 {
		return self.Frames[0].Image
	}
	return nil
}

func (self *Image) populate_from_apng(p *apng.APNG) {
	self.LoopCount = p.LoopCount
	prev_disposal := apng.DISPOSE_OP_BACKGROUND
	var prev_compose_onto uint
	for _, f := range p.Frames {
		if f.IsDefault {
			self.DefaultImage = f.Image
			continue
		}
		frame := Frame{Number: uint(len(self.Frames) + 1), Image: NormalizeOrigin(f.Image), X: f.XOffset, Y: f.YOffset,
			Replace: f.BlendOp == apng.BLEND_OP_SOURCE,
			Delay:   time.Duration(float64(time.Second) * f.GetDelay())}
		switch prev_disposal {
		case apng.DISPOSE_OP_NONE:
			frame.ComposeOnto = frame.Number - 1
		case apng.DISPOSE_OP_PREVIOUS:
			frame.ComposeOnto = prev_compose_onto
		}
		prev_disposal, prev_compose_onto = int(f.DisposeOp), frame.ComposeOnto
		self.Frames = append(self.Frames, &frame)
	}
}

// gif_delay converts a GIF delay in hundredths of a second. Like browsers,
// delays below 20ms are treated as 100ms.
func gif_delay(centiseconds int) time.Duration {
	if centiseconds < 2 {
		centiseconds = 10
	}
	return time.Duration(centiseconds) * 10 * time.Millisecond
}

func (self *Image) populate_from_gif(g *gif.GIF) {
	prev_disposal := uint8(gif.DisposalBackground)
	var prev_compose_onto uint
	for i, img := range g.Image {
		b := img.Bounds()
		frame := Frame{
			Number: uint(len(self.Frames) + 1), Image: NormalizeOrigin(img), X: b.Min.X, Y: b.Min.Y,
			Delay: gif_delay(g.Delay[i]),
		}
		switch prev_disposal {
		case gif.DisposalNone:
			frame.ComposeOnto = frame.Number - 1
		case gif.DisposalPrevious:
			frame.ComposeOnto = prev_compose_onto
		case gif.DisposalBackground:
			// browsers compose onto the previous frame here, contrary to
			// the GIF specification
			frame.ComposeOnto = frame.Number - 1
		}
		if i < len(g.Disposal) {
			prev_disposal = g.Disposal[i]
		}
		prev_compose_onto = frame.ComposeOnto
		self.Frames = append(self.Frames, &frame)
	}
	switch {
	case g.LoopCount == 0:
		self.LoopCount = 0
	case g.LoopCount < 0:
		self.LoopCount = 1
	default:
		self.LoopCount = uint(g.LoopCount) + 1
	}
}

func (self *Image) Clone() *Image {
	ans := *self
	if ans.DefaultImage != nil {
		ans.DefaultImage = ClonePreservingType(ans.DefaultImage)
	}
	ans.Frames = make([]*Frame, len(self.Frames))
	for i, f := range self.Frames {
		nf := *f
		nf.Image = ClonePreservingType(f.Image)
		ans.Frames[i] = &nf
	}
	return &ans
}

func (self *Image) canvas_size() (int, int) {
	if self.Metadata != nil && self.Metadata.PixelWidth > 0 {
		return int(self.Metadata.PixelWidth), int(self.Metadata.PixelHeight)
	}
	var r image.Rectangle
	for _, f := range self.Frames {
		b := f.Image.Bounds()
		r = r.Union(image.Rect(f.X, f.Y, f.X+b.Dx(), f.Y+b.Dy()))
	}
	return r.Max.X, r.Max.Y
}

// Coalesce all animation frames so that each frame is a snapshot of the
// animation at that instant.
func (self *Image) Coalesce() {
	if len(self.Frames) == 1 {
		return
	}
	w, h := self.canvas_size()
	var canvas *image.NRGBA
	for _, f := range self.Frames {
		b := f.Image.Bounds()
		if f.ComposeOnto == 0 {
			canvas = image.NewNRGBA(image.Rect(0, 0, w, h))
		} else {
			canvas = ClonePreservingType(self.Frames[f.ComposeOnto-1].Image).(*image.NRGBA)
		}
		op := draw.Over
		if f.Replace {
			op = draw.Src
		}
		draw.Draw(canvas, image.Rect(f.X, f.Y, f.X+b.Dx(), f.Y+b.Dy()), f.Image, b.Min, op)
		f.Image = canvas
		f.X = 0
		f.Y = 0
		f.ComposeOnto = 0
		f.Replace = true
	}
}

// converts a time.Duration to a numerator and denominator of type uint16.
// It finds the best rational approximation of the duration in seconds.
func as_fraction(d time.Duration) (num, den uint16) {
	if d <= 0 {
		return 0, 1
	}
	val := d.Seconds()
	// Continued fractions, keeping the convergent closest to val whose
	// numerator and denominator fit in uint16.
	bestNum, bestDen := uint16(0), uint16(1)
	bestError := math.Abs(val)

	var h, k [3]int64
	h[0], k[0] = 0, 1
	h[1], k[1] = 1, 0
	f := val
	for range 98 {
		a := int64(f)
		h[2] = a*h[1] + h[0]
		k[2] = a*k[1] + k[0]
		if h[2] > math.MaxUint16 || k[2] > math.MaxUint16 {
			break
		}
		numConv, denConv := uint16(h[2]), uint16(k[2])
		if currentError := math.Abs(val - float64(numConv)/float64(denConv)); currentError < bestError {
			bestError, bestNum, bestDen = currentError, numConv, denConv
		}
		if f-float64(a) == 0.0 {
			break
		}
		f = 1.0 / (f - float64(a))
		h[0], h[1] = h[1], h[2]
		k[0], k[1] = k[1], k[2]
	}
	return bestNum, bestDen
}

func (self *Image) as_apng() (ans apng.APNG) {
	ans.LoopCount = self.LoopCount
	if self.DefaultImage != nil {
		ans.Frames = append(ans.Frames, apng.Frame{Image: self.DefaultImage, IsDefault: true})
	}
	for i, f := range self.Frames {
		d := apng.Frame{
			DisposeOp: apng.DISPOSE_OP_BACKGROUND, BlendOp: apng.BLEND_OP_OVER, XOffset: f.X, YOffset: f.Y, Image: f.Image,
		}
		if f.Replace {
			d.BlendOp = apng.BLEND_OP_SOURCE
		}
		d.DelayNumerator, d.DelayDenominator = as_fraction(f.Delay)
		if i+1 < len(self.Frames) {
			nf := self.Frames[i+1]
			switch nf.ComposeOnto {
			case f.Number:
				d.DisposeOp = apng.DISPOSE_OP_NONE
			case 0:
				d.DisposeOp = apng.DISPOSE_OP_BACKGROUND
			case f.ComposeOnto:
				d.DisposeOp = apng.DISPOSE_OP_PREVIOUS
			}
		}
		ans.Frames = append(ans.Frames, d)
	}
	return
}

func (self *Image) EncodeAsPNG(w io.Writer) error {
	if len(self.Frames) < 2 {
		return png.Encode(w, self.Representative())
	}
	// apng.Encode() does not handle every dispose op mapping, so coalesce first
	img := self.Clone()
	img.Coalesce()
	return apng.Encode(w, img.as_apng())
}

func to_paletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	b := img.Bounds()
	p := image.NewPaletted(b, colorpalette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}

// EncodeAsGIF writes every frame, coalesced, as an animated GIF. Frames that
// are not paletted are dithered to the Plan 9 palette.
func (self *Image) EncodeAsGIF(w io.Writer) error {
	img := self
	if len(self.Frames) > 1 {
		img = self.Clone()
		img.Coalesce()
	}
	g := gif.GIF{}
	switch img.LoopCount {
	case 0:
		g.LoopCount = 0
	case 1:
		g.LoopCount = -1
	default:
		g.LoopCount = int(img.LoopCount) - 1
	}
	for _, f := range img.Frames {
		g.Image = append(g.Image, to_paletted(f.Image))
		g.Delay = append(g.Delay, int(f.Delay/(10*time.Millisecond)))
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	return gif.EncodeAll(w, &g)
}
