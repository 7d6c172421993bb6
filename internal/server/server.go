// Package server exposes the moderation pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/commentguard/commentguard/internal/observability"
	"github.com/commentguard/commentguard/internal/observability/logging"
	"github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/commentguard/commentguard/internal/version"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RequestIDHeader is echoed on every response
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes matches the NDJSON line limit
const DefaultMaxBodyBytes = pipeline.MaxLineSize

const maxRequestIDLen = 128

// Options configure the HTTP service
type Options struct {
	// MaxBodyBytes caps POST bodies; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
	Logger       logging.Logger
	Tracing      *otel.Handle
}

type handler struct {
	proc *pipeline.Processor
	opts Options
}

// New builds the router. Run it with (*gin.Engine).Run or wrap it in an
// http.Server.
func New(proc *pipeline.Processor, opts Options) *gin.Engine {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &handler{proc: proc, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestContext())

	r.GET("/healthz", h.health)
	v1 := r.Group("/v1")
	{
		v1.POST("/evaluate", h.evaluate)
		v1.GET("/policy", h.policy)
	}
	return r
}

// requestContext attaches op id, logger and tracing to each request and
// logs one event when it completes.
func (h *handler) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if len(id) > maxRequestIDLen {
			id = ""
		}
		ctx := observability.WithOpIDValue(c.Request.Context(), id)
		if h.opts.Logger != nil {
			ctx = logging.WithLogger(ctx, h.opts.Logger)
		}
		if h.opts.Tracing != nil {
			ctx = otel.WithHandle(ctx, h.opts.Tracing)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, observability.OpID(ctx))

		c.Next()

		logging.From(ctx).Event(ctx, "http.request", map[string]any{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.BuildVersion()})
}

func (h *handler) policy(c *gin.Context) {
	c.JSON(http.StatusOK, h.proc.Config())
}

func (h *handler) evaluate(c *gin.Context) {
	ctx, end := otel.StartSpan(c.Request.Context(), "http.evaluate",
		attribute.String("http.route", c.FullPath()))

	var req pipeline.Request
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		end(err)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, pipeline.Response{Error: &pipeline.ErrorBody{
				Code: pipeline.CodeInvalidRequest, Message: "Invalid Request: body too large",
			}})
			return
		}
		c.JSON(http.StatusBadRequest, pipeline.Response{Error: &pipeline.ErrorBody{
			Code: pipeline.CodeParseError, Message: "Parse error: " + err.Error(),
		}})
		return
	}

	resp := h.proc.Process(ctx, req)
	status := http.StatusOK
	if resp.Error != nil && resp.Error.Code == pipeline.CodeInvalidRequest {
		status = http.StatusBadRequest
	}
	end(nil)
	c.JSON(status, resp)
}
