package palettefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/palette"
)

var _ = fmt.Print

func TestParseColorForms(t *testing.T) {
	src := `
source = "photo.jpg"
entry {
  old = "#ffffff"
}
entry {
  old = rgb(255, 0, 0)
  new = lab(50, 10, -20)
}
entry {
  old = hex("#000")
  new = "#808080"
}
`
	f, err := ParseBytes([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, "photo.jpg", f.Source)
	require.Equal(t, "cielab", lab.Name(f.Converter))
	require.Len(t, f.Entries, 3)
	conv := lab.CIELab{}
	approx := cmpopts.EquateApprox(0, 1e-6)
	white := conv.ToLab(255, 255, 255)
	if diff := cmp.Diff(white, f.Entries[0].Old, approx); diff != "" {
		t.Fatalf("white mismatch:\n%s", diff)
	}
	require.Equal(t, f.Entries[0].Old, f.Entries[0].New, "a missing new color keeps the old one")
	if diff := cmp.Diff(conv.ToLab(255, 0, 0), f.Entries[1].Old, approx); diff != "" {
		t.Fatalf("red mismatch:\n%s", diff)
	}
	require.Equal(t, lab.Color{50, 10, -20}, f.Entries[1].New)
	if diff := cmp.Diff(conv.ToLab(0, 0, 0), f.Entries[2].Old, approx); diff != "" {
		t.Fatalf("black mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(conv.ToLab(128, 128, 128), f.Entries[2].New, approx); diff != "" {
		t.Fatalf("gray mismatch:\n%s", diff)
	}
	require.Len(t, f.Old(), 3)
	require.Len(t, f.New(), 3)
}

func TestParseConverter(t *testing.T) {
	f, err := ParseBytes([]byte("converter = \"icc\"\nentry {\n old = \"#ff0000\"\n}\n"), "icc.hcl")
	require.NoError(t, err)
	require.Equal(t, "icc", lab.Name(f.Converter))
	want := lab.ICCLab{}.ToLab(255, 0, 0)
	if diff := cmp.Diff(want, f.Entries[0].Old, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Fatalf("icc red mismatch:\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"syntax", "entry {"},
		{"missing old", "entry {\n new = \"#fff\"\n}\n"},
		{"bad hex", "entry {\n old = \"#ggg\"\n}\n"},
		{"bad rgb", "entry {\n old = rgb(300, 0, 0)\n}\n"},
		{"wrong type", "entry {\n old = 12\n}\n"},
		{"unknown function", "entry {\n old = hsl(1, 2, 3)\n}\n"},
		{"unknown converter", "converter = \"xyz\"\nentry {\n old = \"#fff\"\n}\n"},
		{"null old", "entry {\n old = null\n}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tc.src), tc.name+".hcl")
			require.Error(t, err)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	old := palette.Palette{{95.5, 1.25, -3.5}, {60, 40, 20}, {10, 0, 0}}
	new := old.Clone()
	new[1] = lab.Color{55, -30, 12.125}
	f, err := New("in.png", lab.ICCLab{}, old, new)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	require.Contains(t, buf.String(), `"in.png"`)
	require.Contains(t, buf.String(), "lab(")

	back, err := ParseBytes(buf.Bytes(), "roundtrip.hcl")
	require.NoError(t, err)
	require.Equal(t, "in.png", back.Source)
	require.Equal(t, "icc", lab.Name(back.Converter))
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(old, back.Old(), approx); diff != "" {
		t.Fatalf("old palette mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(new, back.New(), approx); diff != "" {
		t.Fatalf("new palette mismatch:\n%s", diff)
	}
}

func TestSaveAndParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.hcl")
	f, err := New("", lab.CIELab{}, palette.Palette{{50, 0, 0}}, nil)
	require.NoError(t, err)
	require.NoError(t, f.SetNew(palette.Palette{{40, 5, 5}}))
	require.Error(t, f.SetNew(palette.Palette{}))
	require.NoError(t, Save(path, f))
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
	back, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, palette.Palette{{40, 5, 5}}, back.New())

	_, err = Parse(filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	_, err = New("", nil, palette.Palette{{1, 2, 3}}, palette.Palette{})
	require.Error(t, err)
}

func TestParseColor(t *testing.T) {
	conv := lab.CIELab{}
	testCases := []struct {
		src  string
		want lab.Color
	}{
		{"#ff0000", conv.ToLab(255, 0, 0)},
		{" #f00 ", conv.ToLab(255, 0, 0)},
		{`"#00ff00"`, conv.ToLab(0, 255, 0)},
		{"rgb(0, 0, 255)", conv.ToLab(0, 0, 255)},
		{"lab(40, -10, 5.5)", lab.Color{40, -10, 5.5}},
		{`hex("#fff")`, conv.ToLab(255, 255, 255)},
	}
	for _, tc := range testCases {
		got, err := ParseColor(tc.src, conv)
		require.NoError(t, err, tc.src)
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Fatalf("%s mismatch:\n%s", tc.src, diff)
		}
	}
	for _, bad := range []string{"#12", "null", "rgb(1, 2)", "lab(", "42"} {
		_, err := ParseColor(bad, conv)
		require.Error(t, err, bad)
	}
}
