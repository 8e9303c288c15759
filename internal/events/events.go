// Package events publishes workflow outcomes to other services.
package events

import (
	"context"
	"time"
)

// Event types
const (
	MissionCompleted    = "mission.completed"
	MissionApproved     = "mission.approved"
	MissionRejected     = "mission.rejected"
	RedemptionRequested = "redemption.requested"
	RedemptionApproved  = "redemption.approved"
	RedemptionRejected  = "redemption.rejected"
	FamilyLinked        = "family.linked"
	CoinsAdjusted       = "coins.adjusted"
)

// Event is the JSON envelope sent for every workflow outcome
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	UserID     int64     `json:"userId"`
	SubjectID  int64     `json:"subjectId"`
	Amount     int64     `json:"amount,omitempty"`
}

// Publisher sends events. Callers publish after commit and only log failures.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NoopPublisher discards events
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evt Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
