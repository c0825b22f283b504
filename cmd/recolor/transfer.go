package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kovidgoyal/recolor"
	"github.com/kovidgoyal/recolor/internal/palettefile"
)

var (
	flagPaletteFile string
	flagOut         string
	flagStrict      bool
	flagWatch       bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer IMAGE",
	Short: "Recolor an image to the new colors of a palette file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransfer,
}

func init() {
	f := transferCmd.Flags()
	f.StringVarP(&flagPaletteFile, "palette", "p", "", "palette file pairing old and new colors")
	f.StringVarP(&flagOut, "output", "o", "", "output image, defaults to IMAGE-recolored with the same extension")
	f.BoolVar(&flagStrict, "strict", false, "fail if the new palette is not ordered by decreasing lightness")
	f.BoolVar(&flagWatch, "watch", false, "re-render whenever the palette file changes")
	_ = transferCmd.MarkFlagRequired("palette")
}

func default_output(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-recolored" + ext
}

func render(src *recolor.Image, out string) error {
	f, err := palettefile.Parse(flagPaletteFile)
	if err != nil {
		return err
	}
	if !f.New().IsMonotonic() {
		if flagStrict {
			return fmt.Errorf("%s: the new palette is not ordered by decreasing lightness", flagPaletteFile)
		}
		log.Warningf("%s: the new palette is not ordered by decreasing lightness, results may look odd", flagPaletteFile)
	}
	img := src.Clone()
	start := time.Now()
	if err = recolor.TransferAll(img, f.Old(), f.New(), recolor.WithK(len(f.Entries)), recolor.WithWorkers(flagWorkers), recolor.WithConverter(f.Converter)); err != nil {
		return err
	}
	if err = recolor.SaveAll(img, out); err != nil {
		return err
	}
	log.Infof("wrote %s in %s", out, time.Since(start))
	return nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	src, err := recolor.OpenAll(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	out := flagOut
	if out == "" {
		out = default_output(args[0])
	}
	if _, err = recolor.FormatFromFilename(out); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	if err = render(src, out); err != nil && !flagWatch {
		return err
	} else if err != nil {
		log.Errorf("%s", err)
	}
	if !flagWatch {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch(ctx, flagPaletteFile, func() {
		if err := render(src, out); err != nil {
			log.Errorf("%s", err)
		}
	})
}

// watch calls changed whenever path is written or replaced until ctx is done.
// The parent directory is watched since editors often save by renaming a new
// file over the old one.
func watch(ctx context.Context, path string, changed func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	abspath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err = w.Add(filepath.Dir(abspath)); err != nil {
		return err
	}
	log.Noticef("watching %s for changes", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abspath || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debugf("%s: %s", ev.Op, ev.Name)
			changed()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch error: %s", err)
		}
	}
}
