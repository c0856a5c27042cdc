// If you are AI: This file handles graceful shutdown orchestration for the demo driver process.

package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHandler manages graceful shutdown on SIGINT or SIGTERM. Before
// the HTTP server closes, the registered stop function quiesces the
// distribution tree so no worker outlives the process teardown.
type ShutdownHandler struct {
	server *Server
	stop   func()
	ctx    context.Context
	cancel context.CancelFunc
}

// NewShutdownHandler creates a handler that listens for termination
// signals. stop is invoked once before HTTP shutdown; nil means there is
// no pipeline to quiesce.
func NewShutdownHandler(server *Server, stop func(), ctx context.Context) *ShutdownHandler {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ShutdownHandler{
		server: server,
		stop:   stop,
		ctx:    shutdownCtx,
		cancel: cancel,
	}
}

// Wait blocks until a termination signal is received, then initiates
// shutdown: pipeline first, HTTP second.
// This method should be called from the main goroutine.
func (h *ShutdownHandler) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal
	<-sigChan

	// Cancel context to signal shutdown
	h.cancel()

	// Quiesce the distribution tree before closing the HTTP surface.
	if h.stop != nil {
		h.stop()
	}

	// Shutdown server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.server.Shutdown(shutdownCtx)
}

// Context returns the shutdown context that is cancelled when shutdown begins.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}
