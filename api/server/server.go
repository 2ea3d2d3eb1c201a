// Package server exposes the node's HTTP surface: transaction and block
// validation, submission into the mempool, block lookup, health and
// metrics.
package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"medledger/core/audit"
	"medledger/core/ledger"
	"medledger/core/mempool"
	"medledger/core/storage"
)

// Server wires the validation core to the node's collaborators.
type Server struct {
	store     *storage.Storage
	pool      *mempool.Mempool
	gossip    *mempool.GossipEngine
	router    *httprouter.Router
	jwtSecret []byte
	audit     audit.Logger
}

// NewServer builds the HTTP server. The JWT secret comes from the
// JWT_SECRET environment variable; submission endpoints refuse to work
// without it.
func NewServer(store *storage.Storage, pool *mempool.Mempool, gossip *mempool.GossipEngine) *Server {
	s := &Server{
		store:     store,
		pool:      pool,
		gossip:    gossip,
		router:    httprouter.New(),
		jwtSecret: []byte(os.Getenv("JWT_SECRET")),
		audit:     audit.NewLogrusLogger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.POST("/api/v1/tx/validate", s.handleValidateTx)
	s.router.POST("/api/v1/block/validate", s.handleValidateBlock)
	s.router.POST("/api/v1/tx", s.requireJWT(s.handleSubmitTx))
	s.router.GET("/api/v1/blocks/:hash", s.handleGetBlock)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", s.handleMetrics)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the API listener.
func (s *Server) ListenAndServe(addr string) error {
	log.WithField("addr", addr).Info("api server listening")
	return http.ListenAndServe(addr, s.router)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps validation rejections to 400 with the offending
// field path; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	if r, ok := ledger.AsRejection(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": r.Constraint,
			"field": r.Field,
		})
		return
	}
	log.WithError(err).Error("internal error")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
