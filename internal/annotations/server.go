package annotations

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/logger"
)

// maxRequestBody bounds POST bodies accepted by the server.
const maxRequestBody = 1 << 20

// Server exposes a Store over the annotation service HTTP surface.
type Server struct {
	store *Store
	log   *zap.Logger
}

// NewServer creates a server for store.
func NewServer(store *Store) *Server {
	return &Server{store: store, log: logger.Named("annotation-server")}
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/annotations/list", s.handleList).Methods(http.MethodPost)
	r.HandleFunc("/annotations/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Handler returns the routes wrapped with panic recovery and, when accessLog
// is non-nil, an access log.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return h
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := s.store.List(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCursor), errors.Is(err, ErrMissingResourceType):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.log.Debug("list",
		zap.String("type", req.Filter.AnnotatedResourceType),
		zap.Int("ids", len(req.Filter.AnnotatedResourceIDs)),
		zap.Int("items", len(resp.Items)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("annotation not found"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"annotations": s.store.Len()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
