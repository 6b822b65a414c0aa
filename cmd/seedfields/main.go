package main

import (
	"errors"
	"io"
	"os"

	"github.com/elliotwutingfeng/go-seedfields"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// options are the resolved settings of one run: defaults, then the
// config file, then command line flags.
type options struct {
	path       string
	dryRun     bool
	backup     bool
	verify     bool
	quiet      bool
	vocabulary seedfields.Vocabulary
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seedfields [path]",
		Short: "Merge required and optional field placeholders in a seed file",
		Long: `seedfields rewrites a seed file that keeps required fields under fields_temp:
and optional fields under fields_temp2: into a single fields: array per
template, marking every field with is_required.

The file is checked before it is replaced and written atomically.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cmd, fs, args)
			if err != nil {
				return err
			}
			return convert(cmd.OutOrStdout(), fs, opts)
		},
	}

	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().String("log-level", "", "log level (trace|debug|info|warn|error|off)")
	cmd.PersistentFlags().Bool("quiet", false, "suppress the conversion report")

	cmd.Flags().Bool("dry-run", false, "print the diff instead of writing the file")
	cmd.Flags().Bool("backup", false, "keep the original file as <path>.bak")
	cmd.Flags().Bool("no-verify", false, "skip checking the result before writing")
	cmd.Flags().String("config", "", "TOML config file (default "+defaultConfigPath+" if present)")
	return cmd
}

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		log.Error().Err(err).Msg("seedfields failed")
		os.Exit(1)
	}
}

// setup applies the colour mode and installs the logger.
func setup(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	if err := applyColorMode(mode, os.Stdout); err != nil {
		return err
	}
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := resolveLevel(raw)
	if err != nil {
		return err
	}
	initLogger(cmd.ErrOrStderr(), level)
	return nil
}

func resolveOptions(cmd *cobra.Command, fs afero.Fs, args []string) (options, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return options{}, err
	}
	cfg, err := loadConfig(fs, configPath)
	if err != nil {
		return options{}, err
	}

	opts := options{
		path:       cfg.Path,
		backup:     cfg.Backup,
		verify:     cfg.Verify,
		vocabulary: cfg.Vocabulary,
	}
	if len(args) == 1 {
		opts.path = args[0]
	}
	flags := cmd.Flags()
	if opts.dryRun, err = flags.GetBool("dry-run"); err != nil {
		return options{}, err
	}
	if flags.Changed("backup") {
		if opts.backup, err = flags.GetBool("backup"); err != nil {
			return options{}, err
		}
	}
	noVerify, err := flags.GetBool("no-verify")
	if err != nil {
		return options{}, err
	}
	if noVerify {
		opts.verify = false
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return options{}, err
	}
	return opts, nil
}

func convert(w io.Writer, fs afero.Fs, opts options) error {
	log.Debug().
		Str("path", opts.path).
		Bool("dry_run", opts.dryRun).
		Bool("verify", opts.verify).
		Msg("converting seed file")

	converter, err := seedfields.New(seedfields.Params{
		Fs:         fs,
		Vocabulary: opts.vocabulary,
		SkipVerify: !opts.verify,
		DryRun:     opts.dryRun,
		Backup:     opts.backup,
	})
	if err != nil {
		return err
	}

	res, err := converter.ConvertFile(opts.path)
	if opts.dryRun && res.Changed() {
		seedfields.PrintDiff(w, opts.path, res.Input, res.Output)
	}
	if err != nil {
		var verr *seedfields.VerifyError
		if errors.As(err, &verr) {
			for _, problem := range verr.Problems {
				log.Warn().Str("path", opts.path).Msg(problem)
			}
		}
		return err
	}
	if !opts.quiet {
		seedfields.PrintReport(w, opts.path, res)
	}

	log.Info().
		Str("path", opts.path).
		Int("required", res.Stats.Required).
		Int("optional", res.Stats.Optional).
		Int("merged", res.Stats.Merged).
		Bool("written", res.Written).
		Msg("seed file converted")
	return nil
}
