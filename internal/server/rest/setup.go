package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
)

// ownAddress resolves the address a setup request acts for. An explicit
// address must match the token.
func ownAddress(r *http.Request, requested string) (string, error) {
	addr := tokenAddress(r.Context())
	if requested != "" && requested != addr {
		return "", common.ErrorUnauthorized
	}
	return addr, nil
}

func (s *Server) handleRequestPassCode(w http.ResponseWriter, r *http.Request) {
	var req protocol.PassCodeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	owner, err := ownAddress(r, req.OwnerAddress)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	code, err := s.svc.PassCodes.Issue(r.Context(), owner)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.PassCodeResponse{Success: true, PassCode: code})
}

func (s *Server) handleInitiateHandshake(w http.ResponseWriter, r *http.Request) {
	var req protocol.InitiateHandshakeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	account, err := s.svc.Accounts.Get(r.Context(), tokenAddress(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = common.ErrorUnauthorized
		}
		s.writeError(r.Context(), w, err)
		return
	}

	err = s.svc.Handshakes.Initiate(r.Context(), req.OtherAddress, req.PassCode, account.Address, account.DisplayName, account.AllowsReplies)
	if err != nil {
		if f, ok := protocol.AsFailure(err); ok {
			writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{
				Error:        true,
				ErrorMessage: f.Message,
				Message:      f.Message,
				ResponseCode: f.Code,
			})
			return
		}
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.InitiateHandshakeResponse{Success: true, Message: "connection established"})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req protocol.SendMessageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	self, err := ownAddress(r, req.SelfAddress)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	code, err := s.svc.Messages.Send(r.Context(), req.Plaintext, self, req.OtherAddress)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.SuccessResponse{Success: true, ResponseCode: code})
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(r.Context(), w, protocol.ErrInvalidRequest)
			return
		}
		limit = n
	}

	entries, err := s.svc.Messages.Inbox(r.Context(), tokenAddress(r.Context()), limit)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.InboxResponse{Success: true, Messages: entries})
}
