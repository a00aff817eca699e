// Package webhook is the durable ingestion endpoint for inbound third-party
// events: WhatsApp chat messages relayed by the workflow engine, and generic
// provider webhooks.
package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/assistant"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/delivery"
	"gorm.io/gorm"
)

// DefaultHistoryLimit is how many prior messages are fetched as generation
// context.
const DefaultHistoryLimit = 10

// Server handles inbound webhook requests. Handlers are stateless across
// requests; all shared state lives in the database.
type Server struct {
	db           *gorm.DB
	generator    assistant.Generator
	dispatcher   delivery.Dispatcher
	tracker      *delivery.Tracker
	processors   map[string]ProcessorFunc
	fallback     string
	historyLimit int
	engine       *gin.Engine
}

// ServerOpts holds parameters for creating a webhook Server.
type ServerOpts struct {
	DB           *gorm.DB
	Generator    assistant.Generator
	Dispatcher   delivery.Dispatcher      // optional; replies are not forwarded without one
	Tracker      *delivery.Tracker        // optional; required when Dispatcher is set
	Processors   map[string]ProcessorFunc // defaults to Processors()
	FallbackText string                   // canned reply used when generation fails
	HistoryLimit int                      // defaults to DefaultHistoryLimit
}

// NewServer creates a webhook Server and registers its routes.
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("webhook: db is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("webhook: generator is required")
	}
	if opts.Dispatcher != nil && opts.Tracker == nil {
		return nil, fmt.Errorf("webhook: tracker is required when dispatcher is set")
	}
	if opts.FallbackText == "" {
		return nil, fmt.Errorf("webhook: fallback text is required")
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	processors := opts.Processors
	if processors == nil {
		processors = Processors()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		db:           opts.DB,
		generator:    opts.Generator,
		dispatcher:   opts.Dispatcher,
		tracker:      opts.Tracker,
		processors:   processors,
		fallback:     opts.FallbackText,
		historyLimit: limit,
		engine:       engine,
	}

	engine.POST("/webhooks/whatsapp", s.handleChat)
	engine.POST("/webhooks/events", s.handleGeneric)

	return s, nil
}

// Engine exposes the underlying router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start runs the webhook listener. It blocks until ctx is cancelled, then
// shuts down gracefully. Accepted requests run to completion regardless of
// shutdown; only the listener stops.
func (s *Server) Start(ctx context.Context, port int, out io.Writer) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: s.engine}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if out != nil {
		fmt.Fprintf(out, "Webhook endpoint listening on %s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}
