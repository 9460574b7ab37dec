package cmd

import (
	"os"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rawbytedev/fressian/pkg/config"
)

// app is the state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	profile *os.File
}

// NewRootCmd builds the fressian command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}
	var (
		configPath string
		logLevel   string
		cpuProfile string
	)

	root := &cobra.Command{
		Use:   "fressian",
		Short: "Inspect and produce footer-checked fressian byte streams",
		Long: `fressian writes and verifies framed message streams. Each message is
closed by a footer carrying its length and an Adler-32 checksum.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log.SetOutput(cmd.ErrOrStderr())
			a.cfg = config.DefaultConfig()
			if configPath != "" {
				cfg, err := config.LoadConfig(configPath)
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			if logLevel != "" {
				a.cfg.Logging.Level = logLevel
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			a.log.SetLevel(a.cfg.Logging.LogLevel())

			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return errors.Wrap(err, "create cpu profile")
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					f.Close()
					return errors.Wrap(err, "start cpu profile")
				}
				a.profile = f
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.profile != nil {
				pprof.StopCPUProfile()
				a.profile.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the config file)")
	root.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this file")

	root.AddCommand(
		newChecksumCmd(a),
		newPackCmd(a),
		newUnpackCmd(a),
		newVerifyCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
