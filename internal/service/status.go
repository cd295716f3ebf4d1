package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

const MaxStatusChecks = 1000

// StatusService records and reads a user's client health pings.
type StatusService struct {
	store store.Store
	now   func() time.Time
}

func NewStatusService(st store.Store) *StatusService {
	return &StatusService{store: st, now: time.Now}
}

func (s *StatusService) Report(ctx context.Context, userID idx.ID, clientName string) (*domain.StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		clientName = "unknown"
	}

	sc := &domain.StatusCheck{
		ID:         idx.New(),
		UserID:     userID,
		ClientName: clientName,
		Timestamp:  s.now().UTC(),
	}
	if err := s.store.StatusChecks().Insert(ctx, sc); err != nil {
		return nil, fmt.Errorf("record status check: %w", err)
	}
	return sc, nil
}

// Recent returns the caller's checks, newest first, capped at MaxStatusChecks.
func (s *StatusService) Recent(ctx context.Context, userID idx.ID, limit int) ([]domain.StatusCheck, error) {
	if limit <= 0 || limit > MaxStatusChecks {
		limit = MaxStatusChecks
	}
	return s.store.StatusChecks().ListRecent(ctx, userID, limit)
}
