package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/tracestore"
)

// NewRouter builds the chi router exposing every registered LayerPlan
// under /api/v1/plans/{name}/execute. traceStore may be nil.
func NewRouter(plans map[string]*engine.LayerPlan, logFactory logger.LogFactory, traceStore *tracestore.Store) http.Handler {
	execAPI := NewExecuteAPI(plans, logFactory, traceStore)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: false,
		}))
		r.Route("/plans/{name}", func(r chi.Router) {
			r.Post("/execute", execAPI.Execute)
		})
	})

	return r
}
