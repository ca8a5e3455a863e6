package web

import (
	"context"

	"github.com/gin-gonic/gin"

	"payengine/database"
	"payengine/service"
)

// Server is the payout engine's HTTP API
type Server struct {
	orchestrator service.PayoutOrchestrator
	query        service.PayoutQuery
	db           *database.DB
	router       *gin.Engine
}

// NewServer creates the HTTP server and registers all routes
func NewServer(orchestrator service.PayoutOrchestrator, query service.PayoutQuery, db *database.DB) *Server {
	router := gin.Default()

	s := &Server{
		orchestrator: orchestrator,
		query:        query,
		db:           db,
		router:       router,
	}

	router.GET("/healthz", s.handleHealth)

	router.POST("/runs", s.handleCreateRun)
	router.GET("/runs", s.handleListRuns)
	router.GET("/runs/:id", s.handleGetRun)

	router.GET("/payouts", s.handleListPayouts)
	router.GET("/payouts/:id", s.handleGetPayout)
	router.GET("/payouts/:id/trace", s.handleTracePayout)

	return s
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router, used by tests and graceful-shutdown wiring
func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) healthy(ctx context.Context) bool {
	return s.db == nil || s.db.Healthy(ctx) == nil
}
