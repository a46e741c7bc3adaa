package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/processor"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check invoice documents for compliance",
	Long: `Validate parses each document and reports missing required fields,
inconsistent line and document amounts, and QR payload warnings.

Arguments may be files, directories (searched for .xml files) or glob
patterns. The command exits with an error if any document is invalid.

Examples:
  ubl-invoice validate invoice.xml
  ubl-invoice validate invoices/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type fileValidation struct {
	File   string                  `json:"file" yaml:"file"`
	Result *model.ValidationResult `json:"result" yaml:"result"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files found")
	}

	pipeline := processor.NewPipeline()
	ctx := context.Background()

	results := make([]fileValidation, 0, len(files))
	hasErrors := false
	for _, file := range files {
		printVerbose("Validating: %s\n", file)

		data, err := os.ReadFile(file)
		if err != nil {
			result := model.NewValidationResult()
			result.AddError(fmt.Sprintf("read error: %v", err))
			results = append(results, fileValidation{File: file, Result: result})
			hasErrors = true
			continue
		}

		result := pipeline.Validate(ctx, data)
		if !result.IsValid {
			hasErrors = true
		}
		results = append(results, fileValidation{File: file, Result: result})
	}

	format := formatOr("table")
	if format == "table" {
		printValidations(cmd.OutOrStdout(), results)
	} else if err := writeStructured(cmd.OutOrStdout(), format, results); err != nil {
		return err
	}

	if hasErrors {
		return errors.New("validation failed for some files")
	}
	return nil
}

func printValidations(out io.Writer, results []fileValidation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tFILE\tERRORS\tWARNINGS")
	fmt.Fprintln(w, "------\t----\t------\t--------")
	for _, r := range results {
		status := "✓"
		if !r.Result.IsValid {
			status = "✗"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", status, r.File, len(r.Result.Errors), len(r.Result.Warnings))
	}
	w.Flush()

	for _, r := range results {
		for _, e := range r.Result.Errors {
			fmt.Fprintf(out, "%s: ✗ %s\n", r.File, e)
		}
		if verbose {
			for _, warning := range r.Result.Warnings {
				fmt.Fprintf(out, "%s: ⚠ %s\n", r.File, warning)
			}
		}
	}
}
