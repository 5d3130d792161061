// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_callsession

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rapidaai/pkg/commons"
)

// Store persists call sessions across the claim/complete lifecycle and
// tracks in-flight async actions so a crash-recovery sweep can find
// sessions that never reached a terminal status.
type Store interface {
	// Save inserts a new call session, generating its SessionID if empty.
	Save(ctx context.Context, cs *CallSession) (string, error)

	// Get retrieves a call session regardless of status; an external
	// action's async callback can arrive after the session is already
	// "completed", so the row must stay readable for its full lifetime.
	Get(ctx context.Context, sessionID string) (*CallSession, error)

	// Claim atomically transitions a session from "pending" to "claimed".
	// Only one concurrent caller can win; later callers get an error.
	Claim(ctx context.Context, sessionID string) (*CallSession, error)

	// Complete marks a session as completed.
	Complete(ctx context.Context, sessionID string) error

	// Fail marks a session as failed.
	Fail(ctx context.Context, sessionID string) error

	// IncrementPendingActions records that an AsyncExecution action was
	// dispatched for this session, so crash recovery can tell a session
	// with outstanding async work from one that's genuinely idle.
	IncrementPendingActions(ctx context.Context, sessionID string) error

	// DecrementPendingActions records that a previously dispatched async
	// action has resolved.
	DecrementPendingActions(ctx context.Context, sessionID string) error

	// StaleClaimed returns sessions still "claimed" after olderThan, the
	// crash-recovery sweep's candidate set for sessions whose call loop
	// died without reaching a terminal status.
	StaleClaimed(ctx context.Context, olderThan time.Duration) ([]CallSession, error)
}

type gormStore struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewStore constructs a call session store over an existing *gorm.DB.
func NewStore(db *gorm.DB, logger commons.Logger) Store {
	return &gormStore{db: db, logger: logger}
}

func (s *gormStore) Save(ctx context.Context, cs *CallSession) (string, error) {
	if cs.Status == "" {
		cs.Status = StatusPending
	}
	if err := s.db.WithContext(ctx).Create(cs).Error; err != nil {
		return "", fmt.Errorf("save call session: %w", err)
	}
	if s.logger != nil {
		s.logger.Infof("saved call session: sessionId=%s, provider=%s", cs.SessionID, cs.Provider)
	}
	return cs.SessionID, nil
}

func (s *gormStore) Get(ctx context.Context, sessionID string) (*CallSession, error) {
	var cs CallSession
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&cs).Error; err != nil {
		return nil, fmt.Errorf("call session not found: %s: %w", sessionID, err)
	}
	return &cs, nil
}

func (s *gormStore) Claim(ctx context.Context, sessionID string) (*CallSession, error) {
	result := s.db.WithContext(ctx).Model(&CallSession{}).
		Where("session_id = ? AND status = ?", sessionID, StatusPending).
		Updates(map[string]any{"status": StatusClaimed, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, fmt.Errorf("claim call session %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("call session %s not found or already claimed", sessionID)
	}
	return s.Get(ctx, sessionID)
}

func (s *gormStore) Complete(ctx context.Context, sessionID string) error {
	return s.setStatus(ctx, sessionID, StatusCompleted)
}

func (s *gormStore) Fail(ctx context.Context, sessionID string) error {
	return s.setStatus(ctx, sessionID, StatusFailed)
}

func (s *gormStore) setStatus(ctx context.Context, sessionID, status string) error {
	result := s.db.WithContext(ctx).Model(&CallSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("set call session %s status %s: %w", sessionID, status, result.Error)
	}
	if s.logger != nil {
		s.logger.Debugf("call session %s -> %s", sessionID, status)
	}
	return nil
}

func (s *gormStore) IncrementPendingActions(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Model(&CallSession{}).
		Where("session_id = ?", sessionID).
		UpdateColumn("pending_action_count", gorm.Expr("pending_action_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment pending actions for %s: %w", sessionID, result.Error)
	}
	return nil
}

func (s *gormStore) DecrementPendingActions(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Model(&CallSession{}).
		Where("session_id = ? AND pending_action_count > 0", sessionID).
		UpdateColumn("pending_action_count", gorm.Expr("pending_action_count - 1"))
	if result.Error != nil {
		return fmt.Errorf("decrement pending actions for %s: %w", sessionID, result.Error)
	}
	return nil
}

func (s *gormStore) StaleClaimed(ctx context.Context, olderThan time.Duration) ([]CallSession, error) {
	var sessions []CallSession
	cutoff := time.Now().Add(-olderThan)
	if err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusClaimed, cutoff).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("find stale claimed call sessions: %w", err)
	}
	return sessions, nil
}
