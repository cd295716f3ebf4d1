package domain

import (
	"time"

	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// StatusCheck is a single client-reported health ping, owned by the user
// whose agent sent it.
type StatusCheck struct {
	ID         idx.ID
	UserID     idx.ID
	ClientName string
	Timestamp  time.Time
}
