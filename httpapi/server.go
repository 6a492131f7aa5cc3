package httpapi

import (
	"context"
	"net/http"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/tracestore"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string
}

// Server serves registered LayerPlans over HTTP.
type Server struct {
	httpServer *http.Server
	log        logger.Log
}

// NewServer builds a Server ready to Start, wrapping a plain net/http
// server around the chi router from NewRouter. traceStore may be nil, in
// which case requests are served without recording step traces.
func NewServer(plans map[string]*engine.LayerPlan, config ServerConfig, logFactory logger.LogFactory, traceStore *tracestore.Store) *Server {
	log := logFactory("Server")
	return &Server{
		httpServer: &http.Server{
			Addr:    config.Address,
			Handler: NewRouter(plans, logFactory, traceStore),
		},
		log: log,
	}
}

// Start begins serving in the background. Errors other than a clean
// shutdown are logged rather than returned, matching the fire-and-forget
// lifecycle a long-running server command expects.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("http server stopped unexpectedly: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down, waiting for in-flight requests to
// finish or ctx to expire, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
