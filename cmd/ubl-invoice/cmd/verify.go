package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
	"github.com/rezonia/ubl-invoice-engine/internal/signature/trust"
	sigxml "github.com/rezonia/ubl-invoice-engine/internal/signature/xml"
)

var verifyCertFiles []string

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify the signature of an invoice document",
	Long: `Verify checks the enveloped XML signature of an invoice document.

Certificates given with --cert or SIGNING_TRUSTED_CERTS are trusted as
signers. Without any, the signature is checked against its embedded
certificate only and the result is reported as untrusted.

Examples:
  ubl-invoice verify signed.xml
  ubl-invoice verify signed.xml --cert signer.pem -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringSliceVar(&verifyCertFiles, "cert", nil, "Trusted PEM certificate file (repeatable)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	files := append(append([]string{}, cfg.Signing.TrustedCerts...), verifyCertFiles...)
	store, err := trust.NewStore(trust.WithCertsFromFiles(files...))
	if err != nil {
		return err
	}
	printVerbose("Trusting %d signer certificates\n", store.Len())

	result, err := sigxml.NewXMLVerifier(store.Certificates()...).Verify(context.Background(), data)
	if result == nil {
		return err
	}

	format := formatOr("table")
	if format == "table" {
		printVerification(cmd.OutOrStdout(), args[0], result)
	} else if err := writeStructured(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}

	if !result.Valid {
		return errors.New("signature verification failed")
	}
	return nil
}

func printVerification(w io.Writer, name string, result *signature.VerificationResult) {
	fmt.Fprintf(w, "File: %s\n", name)
	fmt.Fprintf(w, "  Signature found:   %v\n", result.SignatureFound)
	fmt.Fprintf(w, "  Signature valid:   %v\n", result.SignatureValid)
	fmt.Fprintf(w, "  Certificate trusted: %v\n", result.CertTrusted)

	if result.Signer != nil {
		fmt.Fprintf(w, "  Signer: %s\n", result.Signer.Name)
		if result.Signer.Organization != "" {
			fmt.Fprintf(w, "  Organization: %s\n", result.Signer.Organization)
		}
		fmt.Fprintf(w, "  Serial: %s\n", result.Signer.SerialNumber)
		if result.Signer.SelfSigned {
			fmt.Fprintln(w, "  (self-signed)")
		}
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", e)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠ %s\n", warning)
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ Valid")
	} else {
		fmt.Fprintln(w, "✗ Invalid")
	}
}
