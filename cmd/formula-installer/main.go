package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/open-edge-platform/formula-installer/internal/config"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// createRootCommand creates the root command with all subcommands
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formula-installer",
		Short: "Fetch, verify, install and test binary releases described by formulas",
		Long: `formula-installer installs a prebuilt binary described by a formula file.

The release archive is downloaded, its SHA-256 digest (and optional OpenPGP
signature) is verified, the named executable is copied into the bin
directory, and the installed binary can be smoke-tested with --version.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		fmt.Sprintf("Path to the installer configuration file (default: ./%s)", config.DefaultConfigFile))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output (same as --log-level debug)")

	rootCmd.AddCommand(createInstallCommand())
	rootCmd.AddCommand(createTestCommand())
	rootCmd.AddCommand(createInfoCommand())
	rootCmd.AddCommand(createValidateCommand())
	rootCmd.AddCommand(createVerifyCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks makes every subcommand load the configuration and set
// up logging before it runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, sub := range root.Commands() {
		sub.PersistentPreRunE = initRuntime
	}
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" when the configuration should decide.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if !flagChanged(cmd.Flags(), "verbose") {
		return ""
	}
	if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
		return "debug"
	}
	return ""
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

func initRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return err
	}

	if level := resolveRequestedLogLevel(cmd); level != "" {
		cfg.Logging.Level = level
	}
	if err := logger.Setup(cfg.Logging.Level); err != nil {
		return err
	}

	config.GlConfig = cfg
	logger.ReportPath = filepath.Join(cfg.WorkDir, "reports")
	logger.Logger().Debugf("configuration loaded: workers=%d bin_dir=%s cache_dir=%s",
		cfg.Workers, cfg.BinDir, cfg.CacheDir)
	return nil
}

// commandContext returns the context Execute was started with, if any.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// formulaFileCompletion limits shell completion to YAML files
func formulaFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yml", "yaml"}, cobra.ShellCompDirectiveFilterFileExt
}
