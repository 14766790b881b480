package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/shot02/face-identifier/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	opts := s.deps.Matcher.Options()

	identifyHandler := handlers.NewIdentifyHandler(s.deps.Store, s.deps.Matcher, s.deps.Source)
	verifyHandler := handlers.NewVerifyHandler(opts.MatchThreshold)
	recordsHandler := handlers.NewRecordsHandler(s.deps.Store, s.deps.Index, opts.HashBits)
	statsHandler := handlers.NewStatsHandler(s.deps.Store, opts)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Identification
		r.Post("/identify", identifyHandler.Identify)
		r.Post("/identify/image", identifyHandler.IdentifyImage)

		// Pairwise verification
		r.Post("/verify", verifyHandler.Verify)

		// Records
		r.Get("/records", recordsHandler.List)
		r.Post("/records", recordsHandler.Create)
		r.Post("/records/similar", recordsHandler.Similar)
		r.Get("/records/{faceID}", recordsHandler.Get)
		r.Delete("/records/{faceID}", recordsHandler.Delete)

		// Stats
		r.Get("/stats", statsHandler.Get)
	})
}
