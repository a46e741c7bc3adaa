package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/ubl-invoice-engine/internal/auth"
	"github.com/rezonia/ubl-invoice-engine/internal/processor"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
	sigxml "github.com/rezonia/ubl-invoice-engine/internal/signature/xml"
)

// Banner is returned from the root route
const Banner = "UBL invoice engine is running."

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 10 << 20

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	Debug          bool
	AllowedOrigins []string
	RateLimit      RateLimiterConfig
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	verifier signature.Verifier
	clients  *auth.Table
	limiter  *ClientRateLimiter
}

// Option configures the server
type Option func(*Server)

// WithPipeline sets the invoice pipeline
func WithPipeline(p *processor.Pipeline) Option {
	return func(s *Server) {
		s.pipeline = p
	}
}

// WithVerifier sets the signature verifier
func WithVerifier(v signature.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithClients enables API key authentication against table
func WithClients(table *auth.Table) Option {
	return func(s *Server) {
		s.clients = table
	}
}

// NewServer creates a new API server
func NewServer(config *Config, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}
	router.Use(requestLogger(), corsMiddleware(config.AllowedOrigins))

	s := &Server{
		config: config,
		router: router,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = processor.NewPipeline()
	}
	if s.verifier == nil {
		s.verifier = sigxml.NewXMLVerifier()
	}
	s.limiter = NewClientRateLimiter(config.RateLimit)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	// Legacy signing route, kept for existing integrations
	s.router.POST("/sign", s.authorize(auth.FeatureSignInvoice), s.handleSign)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices", s.authorize(auth.FeatureBuildInvoice), s.handleBuild)
		v1.POST("/validate", s.authorize(auth.FeatureValidateInvoice), s.handleValidate)
		v1.POST("/sign", s.authorize(auth.FeatureSignInvoice), s.handleSign)
		v1.POST("/verify", s.authorize(auth.FeatureSignInvoice), s.handleVerify)
		v1.POST("/pdf", s.authorize(auth.FeatureGeneratePDF), s.handlePDF)
		v1.POST("/qr/decode", s.authorize(auth.FeatureValidateInvoice), s.handleQRDecode)
	}
}

// Run starts the HTTP server and shuts it down when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources
func (s *Server) Close() {
	s.limiter.Close()
}

// readBody returns the request body, rejecting empty and oversized bodies
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		abortWithError(c, ErrUnreadableBody)
		return nil, false
	}
	if len(body) == 0 {
		abortWithError(c, ErrEmptyBody)
		return nil, false
	}
	return body, true
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
}
