package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/qr"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Signing: s.pipeline.CanSign(),
	})
}

func (s *Server) handleBuild(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	sign := false
	if q := c.Query("sign"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			abortWithError(c, NewAppError(http.StatusBadRequest, "invalid sign parameter"))
			return
		}
		sign = v
	}
	if sign && !s.pipeline.CanSign() {
		abortWithError(c, ErrSigningDisabled)
		return
	}

	var in model.InvoiceInput
	if err := decodeJSON(body, &in); err != nil {
		abortWithError(c, NewAppError(http.StatusBadRequest, "invalid JSON body: "+err.Error()))
		return
	}
	if appErr := validateStruct(&in); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result := s.pipeline.Build(ctx, &in, sign)
	if result.Error != nil {
		abortWithError(c, result.Error)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleValidate(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, s.pipeline.Validate(ctx, body))
}

func (s *Server) handleSign(c *gin.Context) {
	if !s.pipeline.CanSign() {
		abortWithError(c, ErrSigningDisabled)
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	signed, err := s.pipeline.Sign(ctx, body)
	if err != nil {
		if !isSigningInputError(err) {
			abortWithError(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, SignResponse{Status: "error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SignResponse{Status: "success", SignedXML: string(signed)})
}

// isSigningInputError reports failures caused by the submitted document
func isSigningInputError(err error) bool {
	var sigErr *signature.SignatureError
	if !errors.As(err, &sigErr) {
		return false
	}
	return sigErr.Code == signature.ErrCodeSigningFailed || sigErr.Code == signature.ErrCodeUnsupportedFormat
}

func (s *Server) handleVerify(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.verifier.Verify(ctx, body)
	if result == nil {
		abortWithError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePDF(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	out, err := s.pipeline.RenderPDF(ctx, body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="invoice.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}

func (s *Server) handleQRDecode(c *gin.Context) {
	var req QRDecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewAppError(http.StatusBadRequest, "invalid JSON body: "+err.Error()))
		return
	}

	payload, err := qr.Decode(req.QR)
	if err != nil {
		abortWithError(c, NewAppError(http.StatusUnprocessableEntity, err.Error()))
		return
	}
	c.JSON(http.StatusOK, payload)
}
