package apihttp

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/themalagasywizard/IHUB-4.1/internal/view"
)

type sessionResponse struct {
	ID    string     `json:"id"`
	State view.State `json:"state"`
	Error *apiError  `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*view.Controller, bool) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "not_found", "sessions are disabled")
		return nil, false
	}
	controller, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return controller, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "not_found", "sessions are disabled")
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	controller, err := s.sessions.Create(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: controller.ID(), State: controller.State()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	controller, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: controller.ID(), State: controller.State()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil || !s.sessions.Delete(mux.Vars(r)["id"]) {
		writeServiceError(w, view.ErrUnknownSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionAction runs one command. Upstream failures still return the
// resulting state since the session fails soft; only malformed commands
// are rejected.
func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	controller, ok := s.session(w, r)
	if !ok {
		return
	}
	var cmd view.Command
	if err := decodeJSONBody(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	state, err := controller.Execute(ctx, cmd)
	response := sessionResponse{ID: controller.ID(), State: state}
	if err != nil {
		status, code := errorStatus(err)
		if status == http.StatusBadRequest {
			writeError(w, status, code, err.Error())
			return
		}
		s.logger.Warn("session action failed",
			slog.String("session", controller.ID()),
			slog.String("type", cmd.Type),
			slog.String("error", err.Error()),
		)
		response.Error = &apiError{Code: code, Message: err.Error()}
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSessionWS streams every state of the session, starting with the
// current one.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	controller, ok := s.session(w, r)
	if !ok {
		return
	}
	initial, err := encodeState(controller.State())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to encode state")
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{hub: s.hub, conn: conn, session: controller.ID(), send: make(chan []byte, 16)}
	client.send <- initial

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
