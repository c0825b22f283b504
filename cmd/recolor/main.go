package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/kovidgoyal/recolor"
	"github.com/kovidgoyal/recolor/lab"
)

var log = commonlog.GetLogger("recolor.cli")

var (
	flagVerbose   int
	flagLogFile   string
	flagConverter string
	flagWorkers   int
)

var rootCmd = &cobra.Command{
	Use:           "recolor",
	Short:         "Extract the palette of an image and recolor it to a new palette",
	Version:       recolor.Version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var path *string
		if flagLogFile != "" {
			path = &flagLogFile
		}
		commonlog.Configure(flagVerbose, path)
		if _, ok := lab.ByName(flagConverter); !ok {
			return fmt.Errorf("unknown converter: %#v, use cielab or icc", flagConverter)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), recolor.Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&flagVerbose, "verbose", "v", "increase logging verbosity, can be repeated")
	pf.StringVar(&flagLogFile, "log-file", "", "write the log to this file instead of stderr")
	pf.StringVar(&flagConverter, "converter", "cielab", "Lab color space to work in: cielab or icc")
	pf.IntVar(&flagWorkers, "workers", 0, "number of worker goroutines, 0 for one per CPU")
	rootCmd.AddCommand(versionCmd, paletteCmd, transferCmd, setCmd)
}

// converter returns the converter named on the command line.
func converter() lab.Converter {
	c, _ := lab.ByName(flagConverter)
	return c
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
