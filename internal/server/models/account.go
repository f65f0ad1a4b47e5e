// Package models defines server-side records persisted by the repositories.
package models

import "time"

// Account is a local mailbox owner on this server.
type Account struct {
	Address       string
	DisplayName   string
	AllowsReplies bool
	CreatedAt     time.Time
}
