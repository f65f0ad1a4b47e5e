package rest

import (
	"net/http"

	"github.com/dmitrijs2005/peermail/internal/server/protocol"
)

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req protocol.AuthRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	resp, err := s.svc.Handshakes.Respond(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthConfirm(w http.ResponseWriter, r *http.Request) {
	var req protocol.AuthConfirmRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.svc.Handshakes.Confirm(r.Context(), &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.SuccessResponse{Success: true})
}

func (s *Server) handleMessageReceive(w http.ResponseWriter, r *http.Request) {
	var req protocol.ReceiveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	code, err := s.svc.Messages.Receive(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.SuccessResponse{Success: true, ResponseCode: code})
}

func (s *Server) handleMessageConfirm(w http.ResponseWriter, r *http.Request) {
	var req protocol.MessageConfirmRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.svc.Messages.Confirm(r.Context(), &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.SuccessResponse{Success: true})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.SuccessResponse{Success: true})
}
