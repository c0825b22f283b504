package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kovidgoyal/recolor/internal/palettefile"
)

var setCmd = &cobra.Command{
	Use:   "set PALETTE_FILE INDEX COLOR",
	Short: "Change one color of the new palette",
	Long: `Change the new color of entry INDEX, counting from zero. COLOR is #RRGGBB, rgb(r, g, b) or lab(l, a, b).
To keep the palette ordered by lightness, earlier entries are made at least as light as COLOR and later entries at most as light.`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	f, err := palettefile.Parse(args[0])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("not a valid index: %#v", args[1])
	}
	c, err := palettefile.ParseColor(args[2], f.Converter)
	if err != nil {
		return err
	}
	p, err := f.New().Edit(idx, c)
	if err != nil {
		return err
	}
	if err = f.SetNew(p); err != nil {
		return err
	}
	if err = palettefile.Save(args[0], f); err != nil {
		return err
	}
	print_palette(cmd.OutOrStdout(), f.Converter, p)
	return nil
}
