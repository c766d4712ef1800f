// Package api exposes the HTTP surface: the Slack events webhook, the
// ticket REST API and the SSE event stream.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nixo/fdebot/internal/directory"
	"github.com/nixo/fdebot/internal/ingest"
	"github.com/nixo/fdebot/internal/notify"
	"github.com/nixo/fdebot/internal/store"
)

// ServerOpts holds configuration for the HTTP server.
type ServerOpts struct {
	Store         *store.Store
	Processor     *ingest.Processor
	Hub           *notify.Hub
	Directory     *directory.Directory
	SigningSecret string
	Port          int
	Out           io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts ServerOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("api: store is required")
	}
	if opts.Processor == nil {
		return fmt.Errorf("api: processor is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := newRouter(opts)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "fdebot listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// newRouter builds the gin router. Split from Start so tests can drive it
// with httptest.
func newRouter(opts ServerOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/slack/events", handleSlackEvents(opts.Processor, opts.SigningSecret))

	tickets := router.Group("/api/tickets")
	tickets.GET("", handleListTickets(opts.Store))
	tickets.GET("/:id", handleGetTicket(opts.Store, opts.Directory))
	tickets.GET("/status/:status", handleTicketsByStatus(opts.Store))
	tickets.GET("/category/:category", handleTicketsByCategory(opts.Store))
	tickets.PATCH("/:id/status", handleUpdateStatus(opts.Store))
	tickets.GET("/stats", handleStats(opts.Store))

	router.GET("/api/events", handleSSE(opts.Hub))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "fdebot"})
	})

	return router
}
