package protocol

import "github.com/dmitrijs2005/peermail/internal/server/models"

// ErrorResponse is returned with a non-200 status by every endpoint.
type ErrorResponse struct {
	Error        bool         `json:"error"`
	ErrorMessage string       `json:"error_message"`
	Message      string       `json:"message,omitempty"`
	ResponseCode ResponseCode `json:"response_code,omitempty"`
}

// SuccessResponse is the bare success body of auth/confirm and
// message/confirm.
type SuccessResponse struct {
	Success      bool         `json:"success"`
	ResponseCode ResponseCode `json:"response_code,omitempty"`
}

type AuthRequest struct {
	ReceivingAddressID   string `json:"receiving_address_id"`
	PassCode             string `json:"pass_code"`
	SendingAddress       string `json:"sending_address"`
	SendingDisplayName   string `json:"sending_display_name"`
	SendingAllowsReplies bool   `json:"sending_allows_replies"`
}

// AuthResponse carries the secrets minted by the responder.
type AuthResponse struct {
	Success              bool   `json:"success"`
	AuthCode             string `json:"auth_code"`
	IdentCode            string `json:"ident_code"`
	MessageKey           string `json:"message_key"`
	ReceivingDisplayName string `json:"receiving_display_name"`
}

type AuthConfirmRequest struct {
	OtherAddress string `json:"other_address"`
	PassCode     string `json:"pass_code"`
}

type ReceiveRequest struct {
	ReceivingAddressID string `json:"receiving_address_id"`
	IdentCode          string `json:"ident_code"`
	Package            string `json:"package"`
	Hash               string `json:"hash"`
	Salt               string `json:"salt"`
	Timestamp          int64  `json:"timestamp"`
}

type MessageConfirmRequest struct {
	Hash  string `json:"hash"`
	Nonce string `json:"nonce"`
}

// Setup API bodies.

type PassCodeRequest struct {
	OwnerAddress string `json:"owner_address"`
}

type PassCodeResponse struct {
	Success  bool   `json:"success"`
	PassCode string `json:"pass_code"`
}

type InitiateHandshakeRequest struct {
	OtherAddress string `json:"other_address"`
	PassCode     string `json:"pass_code"`
}

type InitiateHandshakeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendMessageRequest struct {
	Plaintext    string `json:"plaintext"`
	SelfAddress  string `json:"self_address"`
	OtherAddress string `json:"other_address"`
}

type InboxResponse struct {
	Success  bool                `json:"success"`
	Messages []models.InboxEntry `json:"messages"`
}
