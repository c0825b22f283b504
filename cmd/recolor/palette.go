package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kovidgoyal/recolor"
	"github.com/kovidgoyal/recolor/internal/palettefile"
	"github.com/kovidgoyal/recolor/internal/store"
	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/palette"
	"github.com/kovidgoyal/recolor/types"
)

var (
	flagPaletteOut string
	flagCache      string
	flagK          int
)

var paletteCmd = &cobra.Command{
	Use:   "palette IMAGE",
	Short: "Extract the palette of an image",
	Long:  "Extract the K most representative colors of an image, print them and optionally write them to a palette file for editing.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPalette,
}

func init() {
	f := paletteCmd.Flags()
	f.StringVarP(&flagPaletteOut, "output", "o", "", "write a palette file to this path")
	f.StringVar(&flagCache, "cache", "", "cache extracted palettes in this SQLite database")
	f.IntVarP(&flagK, "k", "k", types.DefaultConfig().K, "number of palette colors")
}

func engine_options() []recolor.Option {
	return []recolor.Option{recolor.WithK(flagK), recolor.WithWorkers(flagWorkers), recolor.WithConverter(converter())}
}

func extract(ctx context.Context, path string) (palette.Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cache *store.Store
	var key string
	if flagCache != "" {
		if cache, err = store.Open(flagCache); err != nil {
			return nil, err
		}
		defer cache.Close()
		cfg := types.DefaultConfig()
		cfg.K, cfg.Workers = flagK, flagWorkers
		key = store.Key(data, flagConverter, cfg)
		r, ok, err := cache.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return r.Palette, nil
		}
	}
	img, err := recolor.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p, err := recolor.ExtractPaletteAll(img, engine_options()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cache != nil {
		if err = cache.Save(ctx, store.Record{Key: key, Source: path, Converter: flagConverter, Palette: p}); err != nil {
			log.Warningf("could not cache the palette of %s: %s", path, err)
		}
	}
	return p, nil
}

func print_palette(w io.Writer, conv lab.Converter, p palette.Palette) {
	for i, c := range p {
		fmt.Fprintf(w, "%2d  %s  %s\n", i, palette.ToNRGB(conv, c).Hex(), c)
	}
}

func runPalette(cmd *cobra.Command, args []string) error {
	p, err := extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	print_palette(cmd.OutOrStdout(), converter(), p)
	if flagPaletteOut == "" {
		return nil
	}
	f, err := palettefile.New(args[0], converter(), p, nil)
	if err != nil {
		return err
	}
	return palettefile.Save(flagPaletteOut, f)
}
