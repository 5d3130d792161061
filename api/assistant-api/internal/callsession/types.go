// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_callsession persists the call sessions that outlive a
// single in-memory call loop: the external-action runner's async
// correlation ids, and enough state to recognize and clean up calls that
// were still in flight when the process crashed.
package internal_callsession

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Call session status constants.
const (
	StatusPending   = "pending"   // media connection not yet established
	StatusClaimed   = "claimed"   // media connection established, call in progress
	StatusCompleted = "completed" // call ended normally
	StatusFailed    = "failed"    // call setup or execution failed
)

// CallSession is the persisted record of one call, from media connect to
// teardown. The row is never deleted mid-call: an async action dispatched
// with Config.AsyncExecution can complete well after the call loop that
// started it has exited, and it needs somewhere to record its outcome.
type CallSession struct {
	ID                 uint64    `gorm:"type:bigint;primaryKey;<-:create"`
	SessionID          string    `gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Status             string    `gorm:"column:status;type:varchar(20);not null;default:pending"`
	Provider           string    `gorm:"column:provider;type:varchar(50);not null;default:''"`
	CallerNumber       string    `gorm:"column:caller_number;type:varchar(50);not null;default:''"`
	CalleeNumber       string    `gorm:"column:callee_number;type:varchar(50);not null;default:''"`
	ChannelUUID        string    `gorm:"column:channel_uuid;type:varchar(200);not null;default:''"`
	PendingActionCount int       `gorm:"column:pending_action_count;type:int;not null;default:0"`
	CreatedAt          time.Time `gorm:"type:timestamp;not null;default:NOW();<-:create"`
	UpdatedAt          time.Time `gorm:"type:timestamp;default:null"`
}

func (CallSession) TableName() string {
	return "call_sessions"
}

func (cs *CallSession) BeforeCreate(tx *gorm.DB) error {
	if cs.SessionID == "" {
		cs.SessionID = uuid.New().String()
	}
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = time.Now()
	}
	return nil
}

func (cs *CallSession) IsPending() bool { return cs.Status == StatusPending }
func (cs *CallSession) IsClaimed() bool { return cs.Status == StatusClaimed }
