package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktrail/internal/platform"
)

const appName = "WorkTrail"

type options struct {
	dataDir string
	verbose bool
}

func newRootCmd() *cobra.Command {
	config := viper.New()
	config.SetEnvPrefix("WORKTRAIL")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:          "worktrail",
		Short:        "WorkTrail - work session tracker with automatic rest detection",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(config)
			if err != nil {
				return err
			}
			return runGUI(opts)
		},
	}

	rootCmd.PersistentFlags().String("data-dir", "", "directory for records, screenshots and settings (default: user config dir)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log with timestamps and source locations")
	_ = config.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = config.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(statusCmd(config))
	rootCmd.AddCommand(reportCmd(config))
	return rootCmd
}

func resolveOptions(config *viper.Viper) (options, error) {
	opts := options{
		dataDir: config.GetString("data_dir"),
		verbose: config.GetBool("verbose"),
	}
	if opts.verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	if opts.dataDir == "" {
		dir, err := platform.NewService().DataDir(appName)
		if err != nil {
			return opts, err
		}
		opts.dataDir = dir
		return opts, nil
	}
	if err := os.MkdirAll(opts.dataDir, 0o755); err != nil {
		return opts, fmt.Errorf("create data dir: %w", err)
	}
	return opts, nil
}
