package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pix-provider/internal/config"
	"pix-provider/internal/payment"
)

// Server is the HTTP facade over the lifecycle engine: routing, auth and
// response envelopes live here, nothing else.
type Server struct {
	engine *payment.Engine
	logger *slog.Logger
	token  string
	mux    *http.ServeMux
}

func New(cfg *config.Config, engine *payment.Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		logger: logger,
		token:  cfg.Auth.Token,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.mux.Handle("POST /create", s.auth(http.HandlerFunc(s.handleCreate)))
	s.mux.Handle("POST /simulate/{id}", s.auth(http.HandlerFunc(s.handleSimulate)))
	s.mux.Handle("GET /payment/{id}", s.auth(http.HandlerFunc(s.handleGet)))

	// Webhook echo endpoint for integration testing; deliberately unauthenticated.
	s.mux.HandleFunc("POST /webhook", s.handleWebhookEcho)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type createRequest struct {
	Value       *int64  `json:"value"`
	ExpiresIn   *int64  `json:"expires_in"`
	Description *string `json:"description"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request parameters.")
		return
	}

	if req.Value == nil || req.ExpiresIn == nil || req.Description == nil {
		writeError(w, http.StatusBadRequest, "Invalid request parameters.")
		return
	}

	p, err := s.engine.Create(r.Context(), payment.CreateInput{
		Value:       *req.Value,
		ExpiresIn:   *req.ExpiresIn,
		Description: *req.Description,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	event, err := s.engine.Simulate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, event)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, p)
}

func (s *Server) handleWebhookEcho(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request parameters.")
		return
	}

	s.logger.InfoContext(r.Context(), "Webhook received", "body", body)

	writeData(w, http.StatusOK, body)
}
