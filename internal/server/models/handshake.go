package models

import "time"

// PassCode is a one-time code issued by the party being connected to.
// It is redeemed at most once by the owner's auth responder.
type PassCode struct {
	ID           string
	OwnerAddress string
	Code         string
	IssuedAt     time.Time
}

// HandshakeRecord lets a remote server confirm that a handshake carrying
// PassCode toward OtherAddress really originated here. Single use.
type HandshakeRecord struct {
	ID           string
	OtherAddress string
	PassCode     string
	CreatedAt    time.Time
}

// Connection holds the secrets shared between SelfAddress and OtherAddress.
// Both parties store a mirrored row with identical AuthCode, IdentCode and
// MessageKey (lowercase hex, 256 bits each).
type Connection struct {
	SelfAddress          string
	OtherAddress         string
	OtherDisplayName     string
	OtherAcceptsMessages bool
	AuthCode             string
	IdentCode            string
	MessageKey           string
	CreatedAt            time.Time
}
