// Package api exposes the vault's operations to local callers (the chat
// UI) over HTTP. This is the command façade: named operations with JSON
// bodies, errors crossing the boundary as descriptive strings. A failed
// credential operation is never fatal to the process.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/loomchat/loomvault/internal/daemon"
	"github.com/loomchat/loomvault/internal/logbuf"
	"github.com/loomchat/loomvault/internal/vault"
)

// Server serves the loomvault credential API over a Unix socket.
type Server struct {
	daemon   *daemon.Daemon
	logs     *logbuf.Ring
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates an API server backed by the given daemon. logs may be
// nil, in which case /v1/logs serves an empty list.
func NewServer(d *daemon.Daemon, logs *logbuf.Ring) *Server {
	s := &Server{
		daemon: d,
		logs:   logs,
		logger: slog.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/credentials", s.getAllCredentials)
	mux.HandleFunc("DELETE /v1/credentials", s.clearAllCredentials)
	mux.HandleFunc("GET /v1/credentials/{provider}", s.getCredential)
	mux.HandleFunc("PUT /v1/credentials/{provider}", s.setCredential)
	mux.HandleFunc("DELETE /v1/credentials/{provider}", s.removeCredential)
	mux.HandleFunc("GET /v1/credentials/{provider}/exists", s.hasCredential)
	mux.HandleFunc("GET /v1/status", s.status)
	mux.HandleFunc("POST /v1/selftest", s.selfTest)
	mux.HandleFunc("GET /v1/logs", s.recentLogs)
	mux.HandleFunc("GET /v1/health", s.health)

	s.server = &http.Server{Handler: mux}
	return s
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "socket", path)
	return s.server.Serve(ln)
}

// ListenTCP starts the server on a TCP address.
func (s *Server) ListenTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "addr", addr)
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type credentialResponse struct {
	Provider string  `json:"provider"`
	Value    *string `json:"value"`
}

func (s *Server) getCredential(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	val, ok, err := s.daemon.Vault().Get(provider)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	resp := credentialResponse{Provider: provider}
	if ok {
		resp.Value = &val
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setCredential(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := s.daemon.Vault().Set(provider, body.Value); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeCredential(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if err := s.daemon.Vault().Remove(provider); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) hasCredential(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	exists, err := s.daemon.Vault().Has(provider)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "exists": exists})
}

func (s *Server) getAllCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.daemon.Vault().All()
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) clearAllCredentials(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.Vault().ClearAll(); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	v := s.daemon.Vault()
	configured, err := v.HasAny()
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    v.Service(),
		"providers":  v.Providers(),
		"configured": configured,
	})
}

func (s *Server) selfTest(w http.ResponseWriter, r *http.Request) {
	report, err := s.daemon.Vault().SelfTest()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report": report})
}

func (s *Server) recentLogs(w http.ResponseWriter, r *http.Request) {
	n := 100
	if q := r.URL.Query().Get("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid n: " + q})
			return
		}
		n = parsed
	}

	lines := []string{}
	if s.logs != nil {
		lines = s.logs.Last(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeVaultError maps vault errors onto the wire: validation failures are
// the caller's fault, store failures are the environment's. Either way the
// body is a descriptive string, not a structured code — the calling UI only
// displays it.
func writeVaultError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, vault.ErrInvalidProvider) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
