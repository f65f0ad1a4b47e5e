package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps protocol failures to 400 and everything else to a
// generic 500. Details of internal errors never leave the server.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if f, ok := protocol.AsFailure(err); ok {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{
			Error:        true,
			ErrorMessage: f.Message,
			ResponseCode: f.Code,
		})
		return
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{Error: true, ErrorMessage: protocol.ErrInvalidRequest.Message})
		return
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusForbidden, protocol.ErrorResponse{Error: true, ErrorMessage: "forbidden"})
		return
	}

	if !errors.Is(err, common.ErrorInternal) {
		s.logger.Error(ctx, "unhandled error", "error", err)
	}
	writeJSON(w, http.StatusInternalServerError, protocol.ErrorResponse{Error: true, ErrorMessage: "internal error"})
}

// decode reads a JSON body into v; malformed input is an INVALID_REQUEST
// failure.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return protocol.ErrInvalidRequest
	}
	return nil
}
