package app

import (
	"net/http"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/config"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-Actor-Id header into context for audit attribution
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			actorHeader := req.Header.Get("X-Actor-Id")
			if actorHeader != "" {
				log.Debugf("Request attributed to actor %s", actorHeader)
				ctx = actor.WithActor(ctx, actorHeader)
			}

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
