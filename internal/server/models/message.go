package models

import "time"

// OutboxEntry is a sent message awaiting the receiver's confirmation callback.
type OutboxEntry struct {
	ID           string
	SelfAddress  string
	IdentCode    string
	MessageHash  string
	MessageNonce string
	Plaintext    string
	CreatedAt    time.Time
}

// SentEntry archives a delivered message.
type SentEntry struct {
	ID           string    `json:"id"`
	SelfAddress  string    `json:"self_address"`
	OtherAddress string    `json:"other_address"`
	MessageHash  string    `json:"message_hash"`
	Plaintext    string    `json:"plaintext"`
	CreatedAt    time.Time `json:"created_at"`
}

// InboxEntry archives a received, decrypted message.
type InboxEntry struct {
	ID           string    `json:"id"`
	SelfAddress  string    `json:"self_address"`
	OtherAddress string    `json:"other_address"`
	MessageHash  string    `json:"message_hash"`
	Plaintext    string    `json:"plaintext"`
	CreatedAt    time.Time `json:"created_at"`
}
