package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/ubl-invoice-engine/internal/auth"
	"github.com/rezonia/ubl-invoice-engine/internal/processor"
	"github.com/rezonia/ubl-invoice-engine/internal/server"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
	"github.com/rezonia/ubl-invoice-engine/internal/signature/trust"
	sigxml "github.com/rezonia/ubl-invoice-engine/internal/signature/xml"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the invoice HTTP API.

Endpoints:
  GET  /                  - Banner
  GET  /health            - Health check
  POST /api/v1/invoices   - Build an invoice from JSON input
  POST /api/v1/validate   - Validate a document
  POST /api/v1/sign       - Sign a document
  POST /api/v1/verify     - Verify a signed document
  POST /api/v1/pdf        - Render a summary PDF
  POST /api/v1/qr/decode  - Decode a QR payload
  POST /sign              - Sign a document (legacy response shape)

Configuration is read from the environment and .env: APP_ADDRESS,
PRIVATE_KEY or SIGNING_KEY_FILE, SIGNING_CERT_FILE, API_CLIENTS_FILE,
CORS_ALLOWED_ORIGINS and the RATE_LIMIT_* settings.

Examples:
  ubl-invoice serve
  ubl-invoice serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "addr", "", "Listen address (default: APP_ADDRESS)")
}

func runServe(cmd *cobra.Command, args []string) error {
	srvConfig := &server.Config{
		Address:        firstNonEmpty(serveAddress, cfg.App.Address),
		ReadTimeout:    cfg.App.ReadTimeout,
		WriteTimeout:   cfg.App.WriteTimeout,
		Debug:          cfg.App.Debug || verbose,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit: server.RateLimiterConfig{
			Burst:           cfg.RateLimit.Burst,
			DefaultPerMin:   cfg.RateLimit.DefaultPerMin,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			EntryTTL:        cfg.RateLimit.EntryTTL,
		},
	}

	var opts []server.Option

	store, err := trust.NewStore(trust.WithCertsFromFiles(cfg.Signing.TrustedCerts...))
	if err != nil {
		return fmt.Errorf("load trusted certificates: %w", err)
	}

	keys, err := loadKeyPair()
	switch {
	case err == nil:
		store.AddCertificate(keys.Cert)
		opts = append(opts, server.WithPipeline(processor.NewPipeline(processor.WithSigner(sigxml.NewXMLSigner(keys)))))
		printVerbose("Signing enabled for %s\n", keys.Cert.Subject.CommonName)
	case isKeyUnavailable(err):
		fmt.Fprintln(os.Stderr, "Warning: no signing key configured, signing endpoints are disabled")
	default:
		return fmt.Errorf("load signing key: %w", err)
	}
	opts = append(opts, server.WithVerifier(sigxml.NewXMLVerifier(store.Certificates()...)))
	printVerbose("Trusting %d signer certificates\n", store.Len())

	if cfg.Auth.ClientsFile != "" {
		table, err := auth.LoadClients(cfg.Auth.ClientsFile)
		if err != nil {
			return fmt.Errorf("load API clients: %w", err)
		}
		opts = append(opts, server.WithClients(table))
		printVerbose("Loaded %d API clients\n", table.Len())
	}

	srv := server.NewServer(srvConfig, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting server on %s\n", srvConfig.Address)
	return srv.Run(ctx)
}

func isKeyUnavailable(err error) bool {
	var sigErr *signature.SignatureError
	return errors.As(err, &sigErr) && sigErr.Code == signature.ErrCodeKeyUnavailable
}
