package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/open-edge-platform/formula-installer/internal/config"
	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/installer"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Install command flags
var (
	archivePath      string
	installSignature string
	installBinDir    string
	runSelfTest      bool
)

// newManager is swapped out by tests.
var newManager = func(cmd *cobra.Command) *installer.Manager {
	return installer.NewManager(config.NewConfigHelpers(config.GlConfig),
		installer.Options{Progress: cmd.ErrOrStderr()})
}

// createInstallCommand creates the install subcommand
func createInstallCommand() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install [flags] FORMULA_FILE",
		Short: "Download, verify and install the binary described by a formula",
		Long: `Install downloads the release archive named by the formula, verifies its
SHA-256 digest (and signature, when the formula declares one), extracts it and
copies the executable into the bin directory. Installation aborts before
anything is written when verification fails.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeInstall,
		ValidArgsFunction: formulaFileCompletion,
	}

	installCmd.Flags().StringVar(&archivePath, "archive", "",
		"Install from a local archive instead of downloading the formula URL")
	installCmd.Flags().StringVar(&installSignature, "signature", "",
		"Local detached signature to use with --archive")
	installCmd.Flags().StringVar(&installBinDir, "bin-dir", "",
		"Directory to install the binary into (overrides config bin_dir)")
	installCmd.Flags().BoolVar(&runSelfTest, "test", false,
		"Run the formula self-test after installing")

	return installCmd
}

// executeInstall handles the install command logic
func executeInstall(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	f, err := formula.LoadFormula(args[0])
	if err != nil {
		return err
	}
	log.Infof("installing %s %s", f.Name, f.Version)

	receipt, err := newManager(cmd).Install(commandContext(cmd), f, installer.InstallOptions{
		ArchivePath:   archivePath,
		SignaturePath: installSignature,
		BinDir:        installBinDir,
		RunSelfTest:   runSelfTest,
	})

	if werr := logger.WriteListFetchedToFile(); werr != nil {
		log.Warnf("writing fetch report: %v", werr)
	}

	if receipt == nil {
		return fmt.Errorf("install of %s failed: %w", f.Name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s installed to %s\n", f.Name, f.Version, receipt.BinaryPath)
	printCaveats(cmd.OutOrStdout(), f)
	return err
}

func printCaveats(w io.Writer, f *formula.Formula) {
	caveats := strings.TrimRight(f.Caveats(), "\n")
	if caveats == "" {
		return
	}
	fmt.Fprintln(w, "==> Caveats")
	fmt.Fprintln(w, caveats)
}
