// Package ops serves the operational JSON API: recent webhook deliveries,
// reply delivery status, health, a live notification stream, and the daily
// digest.
package ops

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/feed"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the ops server.
type StartOpts struct {
	DB   *gorm.DB
	Feed *feed.Manager // optional; health reports feed=false and the stream stays quiet without one
	Port int
	Out  io.Writer
}

// Start launches the ops HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("ops: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8081
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, opts.DB, opts.Feed)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Ops API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops: %w", err)
	}
	return nil
}

// NewRouter builds the ops router without binding a listener. Tests drive it
// through httptest.
func NewRouter(db *gorm.DB, fm *feed.Manager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, db, fm)
	return router
}
