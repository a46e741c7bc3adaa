package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-invoice-engine/internal/pdf"
)

var pdfOutput string

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Render a summary PDF of an invoice document",
	Long: `Render the invoice header, line table and totals of a UBL invoice
document to a one-page PDF.

Examples:
  ubl-invoice pdf invoice.xml -o invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringVarP(&pdfOutput, "output", "o", "", "Output file (required)")
	_ = pdfCmd.MarkFlagRequired("output")
}

func runPDF(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	out, err := pdf.NewRenderer().Render(context.Background(), data)
	if err != nil {
		return err
	}
	if err := writeFileOrStdout(pdfOutput, cmd.OutOrStdout(), out); err != nil {
		return err
	}

	printVerbose("Wrote %s (%d bytes)\n", pdfOutput, len(out))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", pdfOutput)
	return nil
}
