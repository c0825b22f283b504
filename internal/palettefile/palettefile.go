// Package palettefile reads and writes the HCL files that pair an extracted
// palette with the palette it should be recolored to.
//
//	source    = "photo.jpg"
//	converter = "cielab"
//	entry {
//	  old = "#e9e4dc"
//	  new = lab(62, 10, 30) # optional, defaults to old
//	}
package palettefile

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/palette"
)

type Entry struct {
	Old lab.Color
	New lab.Color
}

type File struct {
	Source    string
	Converter lab.Converter
	Entries   []Entry
}

// New pairs old with new, a nil new keeps every color unchanged.
func New(source string, conv lab.Converter, old, new palette.Palette) (*File, error) {
	if new != nil && len(new) != len(old) {
		return nil, fmt.Errorf("palette sizes differ: %d old colors and %d new", len(old), len(new))
	}
	ans := &File{Source: source, Converter: conv, Entries: make([]Entry, len(old))}
	for i, c := range old {
		ans.Entries[i] = Entry{Old: c, New: c}
		if new != nil {
			ans.Entries[i].New = new[i]
		}
	}
	return ans, nil
}

func (f *File) Old() palette.Palette {
	ans := make(palette.Palette, len(f.Entries))
	for i, e := range f.Entries {
		ans[i] = e.Old
	}
	return ans
}

func (f *File) New() palette.Palette {
	ans := make(palette.Palette, len(f.Entries))
	for i, e := range f.Entries {
		ans[i] = e.New
	}
	return ans
}

// SetNew replaces the new palette with p, which must have one color per entry.
func (f *File) SetNew(p palette.Palette) error {
	if len(p) != len(f.Entries) {
		return fmt.Errorf("palette has %d colors but the file has %d entries", len(p), len(f.Entries))
	}
	for i, c := range p {
		f.Entries[i].New = c
	}
	return nil
}

type header struct {
	Source    string   `hcl:"source,optional"`
	Converter string   `hcl:"converter,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

type entryBlock struct {
	Old hcl.Expression `hcl:"old"`
	New hcl.Expression `hcl:"new,optional"`
}

type body struct {
	Entries []entryBlock `hcl:"entry,block"`
}

func Parse(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading palette file: %w", err)
	}
	return ParseBytes(src, path)
}

func ParseBytes(src []byte, filename string) (*File, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %w", diags)
	}
	// The converter decides how hex and rgb() colors become Lab, so it is
	// decoded before any color is evaluated.
	var h header
	if diags := gohcl.DecodeBody(file.Body, nil, &h); diags.HasErrors() {
		return nil, fmt.Errorf("decoding palette file: %w", diags)
	}
	conv, ok := lab.ByName(h.Converter)
	if !ok {
		return nil, fmt.Errorf("unknown converter: %#v", h.Converter)
	}
	ctx := EvalContext(conv)
	var b body
	if diags := gohcl.DecodeBody(h.Remain, ctx, &b); diags.HasErrors() {
		return nil, fmt.Errorf("decoding palette entries: %w", diags)
	}
	ans := &File{Source: h.Source, Converter: conv, Entries: make([]Entry, len(b.Entries))}
	for i, e := range b.Entries {
		old, err := eval_color(e.Old, ctx, conv)
		if err != nil {
			return nil, fmt.Errorf("entry %d: old: %w", i+1, err)
		}
		if old == nil {
			return nil, fmt.Errorf("entry %d: old color must not be null", i+1)
		}
		n, err := eval_color(e.New, ctx, conv)
		if err != nil {
			return nil, fmt.Errorf("entry %d: new: %w", i+1, err)
		}
		if n == nil {
			n = old
		}
		ans.Entries[i] = Entry{Old: *old, New: *n}
	}
	return ans, nil
}

var labType = cty.Object(map[string]cty.Type{"l": cty.Number, "a": cty.Number, "b": cty.Number})

func lab_value(c lab.Color) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"l": cty.NumberFloatVal(c[0]), "a": cty.NumberFloatVal(c[1]), "b": cty.NumberFloatVal(c[2]),
	})
}

func numbers(args []cty.Value) (ans [3]float64) {
	for i, a := range args[:3] {
		ans[i], _ = a.AsBigFloat().Float64()
	}
	return
}

func number_params(names ...string) []function.Parameter {
	ans := make([]function.Parameter, len(names))
	for i, n := range names {
		ans[i] = function.Parameter{Name: n, Type: cty.Number}
	}
	return ans
}

// EvalContext defines the color functions usable in palette files: rgb(r, g,
// b) with components in [0, 255], lab(l, a, b) and hex(s).
func EvalContext(conv lab.Converter) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"rgb": function.New(&function.Spec{
				Description: "An sRGB color with components in [0, 255]",
				Params:      number_params("r", "g", "b"),
				Type:        function.StaticReturnType(labType),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					v := numbers(args)
					for _, x := range v {
						if x < 0 || x > 255 {
							return cty.NilVal, fmt.Errorf("rgb component %v out of range [0, 255]", x)
						}
					}
					return lab_value(conv.ToLab(v[0], v[1], v[2])), nil
				},
			}),
			"lab": function.New(&function.Spec{
				Description: "A Lab color",
				Params:      number_params("l", "a", "b"),
				Type:        function.StaticReturnType(labType),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					return lab_value(lab.Color(numbers(args))), nil
				},
			}),
			"hex": function.New(&function.Spec{
				Description: "A color in #RRGGBB or #RGB notation",
				Params:      []function.Parameter{{Name: "color", Type: cty.String}},
				Type:        function.StaticReturnType(labType),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					c, err := palette.ParseHex(args[0].AsString())
					if err != nil {
						return cty.NilVal, err
					}
					return lab_value(palette.FromNRGB(conv, c)), nil
				},
			}),
		},
	}
}

// eval_color returns nil for a null or absent color.
func eval_color(expr hcl.Expression, ctx *hcl.EvalContext, conv lab.Converter) (*lab.Color, error) {
	v, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("color value is not known")
	}
	t := v.Type()
	switch {
	case t == cty.String:
		c, err := palette.ParseHex(v.AsString())
		if err != nil {
			return nil, err
		}
		ans := palette.FromNRGB(conv, c)
		return &ans, nil
	case t.IsObjectType() && t.HasAttribute("l") && t.HasAttribute("a") && t.HasAttribute("b"):
		var ans lab.Color
		for i, name := range []string{"l", "a", "b"} {
			a := v.GetAttr(name)
			if a.IsNull() || a.Type() != cty.Number {
				return nil, fmt.Errorf("attribute %s of a lab color must be a number", name)
			}
			ans[i], _ = a.AsBigFloat().Float64()
		}
		if !ans.IsFinite() {
			return nil, fmt.Errorf("color %s is not finite", ans)
		}
		return &ans, nil
	}
	return nil, fmt.Errorf("a color must be a hex string or a call to rgb(), lab() or hex(), not %s", t.FriendlyName())
}

func round(x float64) float64 { return math.Round(x*1000) / 1000 }

func lab_tokens(c lab.Color) hclwrite.Tokens {
	return hclwrite.TokensForFunctionCall("lab",
		hclwrite.TokensForValue(cty.NumberFloatVal(round(c[0]))),
		hclwrite.TokensForValue(cty.NumberFloatVal(round(c[1]))),
		hclwrite.TokensForValue(cty.NumberFloatVal(round(c[2]))),
	)
}

// Bytes renders f in canonical HCL formatting. Colors are written as lab()
// calls so that reading the file back loses nothing but rounding.
func (f *File) Bytes() []byte {
	out := hclwrite.NewEmptyFile()
	root := out.Body()
	if f.Source != "" {
		root.SetAttributeValue("source", cty.StringVal(f.Source))
	}
	if f.Converter != nil {
		if name := lab.Name(f.Converter); name != "custom" {
			root.SetAttributeValue("converter", cty.StringVal(name))
		}
	}
	for _, e := range f.Entries {
		root.AppendNewline()
		blk := root.AppendNewBlock("entry", nil).Body()
		blk.SetAttributeRaw("old", lab_tokens(e.Old))
		if e.New != e.Old {
			blk.SetAttributeRaw("new", lab_tokens(e.New))
		}
	}
	return hclwrite.Format(out.Bytes())
}

func Write(w io.Writer, f *File) error {
	_, err := w.Write(f.Bytes())
	return err
}

// Save writes f to path, replacing it atomically.
func Save(path string, f *File) (err error) {
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, f.Bytes(), 0o644); err != nil {
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
	}
	return
}

// ParseColor parses a single color as written on the right hand side of an
// entry attribute. A bare #RRGGBB or #RGB needs no quotes.
func ParseColor(s string, conv lab.Converter) (lab.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := palette.ParseHex(s)
		if err != nil {
			return lab.Color{}, err
		}
		return palette.FromNRGB(conv, c), nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte(s), "color", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return lab.Color{}, fmt.Errorf("parsing color: %w", diags)
	}
	ans, err := eval_color(expr, EvalContext(conv), conv)
	if err != nil {
		return lab.Color{}, err
	}
	if ans == nil {
		return lab.Color{}, fmt.Errorf("color must not be null")
	}
	return *ans, nil
}
