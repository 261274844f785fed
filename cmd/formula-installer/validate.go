package main

import (
	"fmt"

	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Validate command flags
var strictValidate bool

// createValidateCommand creates the validate subcommand
func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] FORMULA_FILE",
		Short: "Validate a formula file",
		Long: `Validate a formula file against the formula schema without installing it.
The formula file must be in YAML format. With --strict a placeholder sha256
value is reported as an error instead of a warning.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeValidate,
		ValidArgsFunction: formulaFileCompletion,
	}

	validateCmd.Flags().BoolVar(&strictValidate, "strict", false,
		"Fail when the formula carries a placeholder sha256")
	return validateCmd
}

// executeValidate handles the validate command logic
func executeValidate(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	formulaFile := args[0]

	log.Infof("validating formula file: %s", formulaFile)

	f, err := formula.LoadFormula(formulaFile)
	if err != nil {
		return fmt.Errorf("formula validation failed: %w", err)
	}

	if f.HasPlaceholderDigest() {
		if strictValidate {
			return fmt.Errorf("formula validation failed: %w: sha256 %q is a placeholder",
				formula.ErrIntegrity, f.SHA256)
		}
		log.Warnf("sha256 %q is not a SHA-256 digest; installing %s will fail until it is replaced", f.SHA256, f.Name)
	}

	log.Infof("✓ Formula validation successful for %s", formulaFile)
	log.Infof("Formula: %s v%s (%s)", f.Name, f.Version, f.License)
	if verbose {
		log.Infof("URL: %s", f.URL)
		log.Infof("Binary: %s", f.Binary())
		if f.Signature != nil {
			log.Infof("Signature: %s", f.Signature.URL)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", formulaFile)
	return nil
}
