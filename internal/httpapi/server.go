package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/marruell/daybook/internal/chat"
	"github.com/marruell/daybook/internal/config"
	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/observability"
	"github.com/marruell/daybook/internal/session"
)

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	store    *journal.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, sessions *session.Manager, store *journal.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		metrics:  metrics,
		static:   newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive the journal if
				// the server is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.cfg.AllowAnyOrigin {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/ws", s.handleChatWS)
	r.Post("/api/session", s.handleCreateSession)
	r.Get("/api/derived/{log_type}", s.handleDerived)
	r.Get("/api/profile", s.handleProfile)
	r.Get("/api/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

type chatRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
	State string `json:"state"`
	Saved bool   `json:"saved"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := s.sessions.Default()
	if strings.TrimSpace(req.SessionID) != "" {
		var err error
		sess, err = s.sessions.Get(req.SessionID)
		if err != nil {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
	}

	turn, err := sess.Step(r.Context(), req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		code := "storage_error"
		if errors.Is(err, journal.ErrEntryExists) {
			status = http.StatusConflict
			code = "entry_exists"
		}
		respondError(w, status, code, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{
		Reply: turn.Reply,
		State: string(turn.State),
		Saved: turn.Saved,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"started_at": sess.StartedAt,
		"state":      string(sess.State()),
	})
}

func (s *Server) handleDerived(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "log_type")
	if !journal.ValidCategory(category) {
		respondError(w, http.StatusNotFound, "unknown_category", "unknown log category: "+category)
		return
	}
	content, _ := s.store.DerivedView(category)
	respondJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"content": s.store.Profile()})
}

type wsTurnEvent struct {
	Reply    string `json:"reply"`
	State    string `json:"state"`
	Saved    bool   `json:"saved"`
	DraftLog string `json:"draft_log,omitempty"`
}

// handleChatWS serves a persistent chat connection. Frames are processed
// strictly in order; each inbound {text} produces exactly one outbound turn
// event on the same connection.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Default()
	if id := strings.TrimSpace(r.URL.Query().Get("session_id")); id != "" {
		var err error
		sess, err = s.sessions.Get(id)
		if err != nil {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "invalid_client_message"})
			continue
		}
		turn, err := sess.Step(r.Context(), req.Text)
		if err != nil {
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "storage_error"})
			continue
		}
		event := wsTurnEvent{
			Reply: turn.Reply,
			State: string(turn.State),
			Saved: turn.Saved,
		}
		if turn.State == chat.StateLogConfirm {
			event.DraftLog = turn.DraftLog
		}
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
