package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/K2/matrix.svg/pkg/errors"
	"github.com/K2/matrix.svg/pkg/pipeline"
	"github.com/K2/matrix.svg/pkg/rain"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output      string // output file path ("" = stdout)
	preset      string // named preset to start from
	configPath  string // TOML config file
	preview     bool   // shorthand for --preset preview
	interactive bool   // pick a preset via the terminal UI
	listNice    bool   // print the nice-level table and exit
	noCache     bool   // disable the document cache
	refresh     bool   // regenerate even on a cache hit

	noLightning      bool
	noMetadata       bool
	nice             int
	gpsMin           int
	gpsMax           int
	columnsRegular   int
	columnsIrregular int
	widthOffset      int
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an animated digital-rain SVG document",
		Long: `Generate renders a complete animated SVG scene and writes it to stdout
or a file. Generation is deterministic: the same configuration always
produces byte-identical output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.listNice {
				printNiceTable()
				return nil
			}
			cfg, err := resolveConfig(cmd, &opts)
			if err != nil {
				return err
			}
			if opts.interactive {
				picked, ok, err := pickPreset()
				if err != nil {
					return err
				}
				if !ok {
					printInfo("No preset selected")
					return nil
				}
				cfg = picked
			}
			return c.runGenerate(cmd, cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", fmt.Sprintf("start from a named preset: %s", strings.Join(rain.PresetNames(), ", ")))
	cmd.Flags().StringVar(&opts.configPath, "config", "", "load configuration from a TOML file")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "generate the small preview scene (same as --preset preview)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick a preset interactively")
	cmd.Flags().BoolVar(&opts.listNice, "list-nice", false, "list nice levels and the effects they strip")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even when the document is cached")

	cmd.Flags().BoolVar(&opts.noLightning, "no-lightning", false, "omit the lightning flourish")
	cmd.Flags().BoolVar(&opts.noMetadata, "no-metadata", false, "omit the RDF metadata block")
	cmd.Flags().IntVar(&opts.nice, "nice", 0, "degradation level, higher strips more effects")
	cmd.Flags().IntVar(&opts.gpsMin, "gps-min", 0, "minimum glyphs per strand")
	cmd.Flags().IntVar(&opts.gpsMax, "gps-max", 0, "maximum glyphs per strand")
	cmd.Flags().IntVar(&opts.columnsRegular, "columns-regular", 0, "number of evenly spaced columns")
	cmd.Flags().IntVar(&opts.columnsIrregular, "columns-irregular", 0, "number of offset columns")
	cmd.Flags().IntVar(&opts.widthOffset, "width-offset", 0, "canvas width adjustment in pixels")

	return cmd
}

// resolveConfig builds the effective configuration from preset, config file,
// and explicit flags, in that order of precedence.
func resolveConfig(cmd *cobra.Command, opts *generateOpts) (rain.Config, error) {
	if opts.preview {
		if opts.preset != "" && opts.preset != "preview" {
			return rain.Config{}, errors.New(errors.ErrCodeInvalidConfiguration,
				"--preview conflicts with --preset %s", opts.preset)
		}
		opts.preset = "preview"
	}

	cfg := rain.DefaultConfig()

	if opts.preset != "" {
		preset, err := rain.Preset(opts.preset)
		if err != nil {
			return rain.Config{}, err
		}
		cfg = preset
	}

	if opts.configPath != "" {
		loaded, err := rain.LoadConfig(opts.configPath)
		if err != nil {
			return rain.Config{}, err
		}
		cfg = loaded
	}

	// Explicit flags win over preset and config file.
	flags := cmd.Flags()
	if flags.Changed("no-lightning") {
		cfg.IncludeLightning = !opts.noLightning
	}
	if flags.Changed("no-metadata") {
		cfg.IncludeMetadata = !opts.noMetadata
	}
	if flags.Changed("nice") {
		cfg.NiceLevel = opts.nice
	}
	if flags.Changed("gps-min") {
		cfg.GlyphsMin = opts.gpsMin
	}
	if flags.Changed("gps-max") {
		cfg.GlyphsMax = opts.gpsMax
	}
	if flags.Changed("columns-regular") {
		cfg.RegularColumns = opts.columnsRegular
	}
	if flags.Changed("columns-irregular") {
		cfg.IrregularColumns = opts.columnsIrregular
	}
	if flags.Changed("width-offset") {
		cfg.WidthOffset = opts.widthOffset
	}

	return cfg, nil
}

// runGenerate executes the pipeline and writes the document.
func (c *CLI) runGenerate(cmd *cobra.Command, cfg rain.Config, opts *generateOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Config:  cfg,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	p.done("Generated document")

	if opts.output == "" {
		if _, err := os.Stdout.Write(result.Document); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOutput, err, "write to stdout")
		}
		return nil
	}

	if err := os.WriteFile(opts.output, result.Document, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOutput, err, "write %s", opts.output)
	}

	printSuccess("Wrote %s", opts.output)
	printStats(result.Stats.Strands, result.Stats.Glyphs, len(result.Document), result.CacheInfo.DocumentHit)
	return nil
}
