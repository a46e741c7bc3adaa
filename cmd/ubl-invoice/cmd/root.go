package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-invoice-engine/internal/config"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	envFile      string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ubl-invoice",
	Short: "Build, validate and sign UBL 2.1 tax invoices",
	Long: `ubl-invoice produces UBL 2.1 invoices with the ZATCA QR payload from
structured input, checks existing invoice documents and signs them.

Examples:
  # Build an invoice document from JSON input
  ubl-invoice build invoice.json -o invoice.xml

  # Validate documents
  ubl-invoice validate invoices/*.xml

  # Sign with the key in PRIVATE_KEY or SIGNING_KEY_FILE
  ubl-invoice sign invoice.xml -o signed.xml

  # Run the HTTP API
  ubl-invoice serve`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "Output format (json, yaml, table, xml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
}

func initConfig() error {
	loaded, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg = loaded
	return nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
