package main

import (
	"fmt"

	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/installer"
	"github.com/spf13/cobra"
)

// Verify command flags
var verifySignature string

// createVerifyCommand creates the verify subcommand
func createVerifyCommand() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify [flags] FORMULA_FILE ARCHIVE",
		Short: "Check a local archive against a formula's digest and signature",
		Args:  cobra.ExactArgs(2),
		RunE:  executeVerify,
	}

	verifyCmd.Flags().StringVar(&verifySignature, "signature", "",
		"Detached signature of the archive (required for signed formulas)")
	return verifyCmd
}

// executeVerify handles the verify command logic
func executeVerify(cmd *cobra.Command, args []string) error {
	f, err := formula.LoadFormula(args[0])
	if err != nil {
		return err
	}
	archive := args[1]

	digest, err := installer.VerifyArchive(f, archive, verifySignature)
	if err != nil {
		return fmt.Errorf("verification of %s failed: %w", archive, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sha256: %s\n", digest)
	fmt.Fprintf(cmd.OutOrStdout(), "%s matches %s %s\n", archive, f.Name, f.Version)
	return nil
}
