// Package web exposes the catalog, the share codec and the calendar
// document generator over HTTP.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vfestimetable/internal/catalog"
	"vfestimetable/internal/config"
	"vfestimetable/internal/ics"
	appLog "vfestimetable/internal/log"
	"vfestimetable/internal/model"
	"vfestimetable/internal/share"
)

// Server provides the HTTP API:
//
//	GET  /health                      liveness (never behind auth)
//	GET  /api/events                  catalog as JSON
//	POST /api/calendar/ics            selections -> create document download
//	POST /api/calendar/cancel-ics     selections -> cancel document download
//	GET  /api/share?schedules=TOKEN   share token -> selections
//	POST /api/share                   selections -> {token, url}
type Server struct {
	cfg    *config.Config
	store  *catalog.Store
	router *mux.Router
}

// NewServer constructs a new Server over the given catalog store.
func NewServer(cfg *config.Config, store *catalog.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLogger(h)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/calendar/ics", s.handleGenerate(ics.ModeCreate)).Methods(http.MethodPost)
	api.HandleFunc("/calendar/cancel-ics", s.handleGenerate(ics.ModeCancel)).Methods(http.MethodPost)
	api.HandleFunc("/share", s.handleDecodeShare).Methods(http.MethodGet)
	api.HandleFunc("/share", s.handleCreateShare).Methods(http.MethodPost)
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(started))
	})
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="vfes-timetable", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Events())
}

// handleGenerate builds either the create or the cancel calendar document
// from the posted selections and serves it as an attachment download.
func (s *Server) handleGenerate(mode ics.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		selections, err := decodeSelections(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "不正なイベントデータです")
			return
		}

		doc, err := ics.Generate(selections, s.store.Events(), mode)
		if err != nil {
			writeGenerateError(w, err)
			return
		}

		w.Header().Set("Content-Type", ics.MIMEType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc.Content))
	}
}

func (s *Server) handleDecodeShare(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(share.ShareParam)
	if token == "" {
		writeError(w, http.StatusBadRequest, "共有トークンが指定されていません")
		return
	}

	selections, err := share.Decompress(token, s.store.Events())
	switch {
	case errors.Is(err, share.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "共有されたリンクが無効です")
		return
	case errors.Is(err, share.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "共有されたイベントは存在しません")
		return
	case err != nil:
		appLog.Error("share decode failed", err)
		writeError(w, http.StatusInternalServerError, "共有リンクの展開に失敗しました")
		return
	}

	writeJSON(w, http.StatusOK, selections)
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	selections, err := decodeSelections(r)
	if err != nil || len(selections) == 0 {
		writeError(w, http.StatusBadRequest, "不正なイベントデータです")
		return
	}

	token, err := share.Compress(selections)
	if err != nil {
		appLog.Error("share compress failed", err)
		writeError(w, http.StatusBadRequest, "共有リンクの生成に失敗しました")
		return
	}

	shareURL, err := share.ShareURL(s.cfg.ShareBaseURL, token)
	if err != nil {
		appLog.Error("share url build failed", err, "base", s.cfg.ShareBaseURL)
		writeError(w, http.StatusInternalServerError, "共有リンクの生成に失敗しました")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"url":     shareURL,
	})
}

func writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ics.ErrValidation):
		writeError(w, http.StatusBadRequest, "不正なイベントデータです")
	case errors.Is(err, ics.ErrUnknownEvent):
		writeError(w, http.StatusNotFound, "イベントが見つかりません")
	default:
		appLog.Error("ics generate failed", err)
		writeError(w, http.StatusInternalServerError, "ICSファイルの生成に失敗しました")
	}
}

func decodeSelections(r *http.Request) ([]model.SelectedSchedule, error) {
	var selections []model.SelectedSchedule
	if err := json.NewDecoder(r.Body).Decode(&selections); err != nil {
		return nil, err
	}
	return selections, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("json encode failed", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}
