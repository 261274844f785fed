package main

import (
	"fmt"

	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/spf13/cobra"
)

// Test command flags
var testBinDir string

// createTestCommand creates the test subcommand
func createTestCommand() *cobra.Command {
	testCmd := &cobra.Command{
		Use:   "test [flags] FORMULA_FILE",
		Short: "Run the formula self-test against the installed binary",
		Long: `Test runs "<binary> --version" on the installed binary and checks that the
output contains "<binary> <version>" as declared by the formula.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeTest,
		ValidArgsFunction: formulaFileCompletion,
	}

	testCmd.Flags().StringVar(&testBinDir, "bin-dir", "",
		"Directory the binary was installed into (overrides config bin_dir)")
	return testCmd
}

// executeTest handles the test command logic
func executeTest(cmd *cobra.Command, args []string) error {
	f, err := formula.LoadFormula(args[0])
	if err != nil {
		return err
	}

	if err := newManager(cmd).Test(commandContext(cmd), f, testBinDir); err != nil {
		return fmt.Errorf("test of %s failed: %w", f.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: self-test passed\n", f.Name, f.Version)
	return nil
}
