package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
)

type sendMessageRequest struct {
	To   string `json:"to" validate:"required,min=8"`
	Text string `json:"text" validate:"required"`
}

// handleSendMessage relays a text message through the gateway. Used by
// the companion clients for out-of-band notifications.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := s.decodeValid(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Gateway == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Gateway indisponível"})
		return
	}
	if err := s.deps.Gateway.SendMessage(r.Context(), req.To, req.Text); err != nil {
		s.logger.Error("failed sending gateway message", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Falha ao enviar mensagem"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleQR proxies the pairing QR payload from the gateway.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gateway == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Gateway indisponível"})
		return
	}

	payload, err := s.deps.Gateway.QR(r.Context())
	if err != nil {
		s.logger.Error("failed fetching qr payload", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Falha ao obter QR code"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// handleGetSession returns the stored gateway credentials blob. The
// gateway restores its WhatsApp session from this on startup.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Repository.GetGatewaySession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Nenhuma sessão salva"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          session.ID,
		"credentials": json.RawMessage(session.Credentials),
		"updatedAt":   session.UpdatedAt,
	})
}

// handleSaveSession persists the gateway credentials blob verbatim.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Credenciais inválidas"})
		return
	}
	defer r.Body.Close()

	if err := s.deps.Repository.SaveGatewaySession(r.Context(), body); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
