package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/spf13/cobra"
)

// Info command flags
var infoFormat string

// createInfoCommand creates the info subcommand
func createInfoCommand() *cobra.Command {
	infoCmd := &cobra.Command{
		Use:               "info [flags] FORMULA_FILE",
		Short:             "Show formula metadata and caveats",
		Args:              cobra.ExactArgs(1),
		RunE:              executeInfo,
		ValidArgsFunction: formulaFileCompletion,
	}

	infoCmd.Flags().StringVar(&infoFormat, "format", "text", "Output format: text or json")
	return infoCmd
}

// executeInfo handles the info command logic
func executeInfo(cmd *cobra.Command, args []string) error {
	f, err := formula.LoadFormula(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch strings.ToLower(infoFormat) {
	case "json":
		payload := struct {
			*formula.Formula
			PlaceholderDigest bool `json:"placeholderDigest"`
		}{Formula: f, PlaceholderDigest: f.HasPlaceholderDigest()}

		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil

	case "text":
		fmt.Fprintf(out, "%s %s\n", f.Name, f.Version)
		if f.Description != "" {
			fmt.Fprintln(out, f.Description)
		}
		fmt.Fprintf(out, "Homepage: %s\n", f.Homepage)
		fmt.Fprintf(out, "License:  %s\n", f.License)
		fmt.Fprintf(out, "URL:      %s\n", f.URL)
		if f.HasPlaceholderDigest() {
			fmt.Fprintf(out, "SHA256:   %s (placeholder, install will fail)\n", f.SHA256)
		} else {
			fmt.Fprintf(out, "SHA256:   %s\n", f.SHA256)
		}
		fmt.Fprintf(out, "Binary:   %s\n", f.Binary())
		if f.Signature != nil {
			fmt.Fprintf(out, "Signed:   %s (key %s)\n", f.Signature.URL, f.PublicKeyPath())
		}
		printCaveats(out, f)
		return nil

	default:
		return fmt.Errorf("invalid --format %q (expected text|json)", infoFormat)
	}
}
