package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rezonia/ubl-invoice-engine/internal/processor"
)

var (
	buildOutput string
	buildSign   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [input-file]",
	Short: "Build a UBL invoice document from JSON or YAML input",
	Long: `Build reconciles the amounts of an invoice input, assembles the UBL 2.1
document with its QR payload and runs the compliance check on the result.

The input is read from the given file, or from stdin when the argument is
omitted or "-". Files ending in .yaml or .yml are read as YAML.

Output formats:
  xml   - the document (signed when --sign is set), the default
  json  - the full build result
  yaml  - the full build result as YAML

Examples:
  ubl-invoice build invoice.json -o invoice.xml
  ubl-invoice build invoice.yaml --sign -f json
  cat invoice.json | ubl-invoice build`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output file (default: stdout)")
	buildCmd.Flags().BoolVar(&buildSign, "sign", false, "Sign the document with the configured key")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if isYAMLFile(path) {
		printVerbose("Converting YAML input %s\n", path)
		if data, err = yamlToJSON(data); err != nil {
			return err
		}
	}

	pipeline, err := newPipeline(buildSign)
	if err != nil {
		return err
	}

	result := pipeline.BuildJSON(context.Background(), data, buildSign)
	if result.Error != nil {
		return result.Error
	}
	printVerbose("Built invoice %s (total %s)\n", result.UUID, result.Totals.Total.StringFixed(2))
	for _, w := range result.Validation.Warnings {
		printVerbose("  ⚠ %s\n", w)
	}

	format := formatOr("xml")
	if format == "xml" {
		doc := result.XML
		if result.SignedXML != "" {
			doc = result.SignedXML
		}
		return writeFileOrStdout(buildOutput, cmd.OutOrStdout(), []byte(doc))
	}

	w, closeFn, err := openOutput(buildOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeStructured(w, format, result); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// yamlToJSON re-encodes a YAML document so the JSON input rules apply to it
func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid invoice YAML: %w", err)
	}
	return json.Marshal(doc)
}

// newPipeline creates the pipeline, loading the signing key when needed
func newPipeline(needSigner bool) (*processor.Pipeline, error) {
	if !needSigner {
		return processor.NewPipeline(), nil
	}
	signer, err := loadSigner()
	if err != nil {
		return nil, err
	}
	return processor.NewPipeline(processor.WithSigner(signer)), nil
}
