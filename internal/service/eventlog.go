package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"webauth/internal/models"
	"webauth/internal/repository"
)

type EventLogService struct {
	events repository.EventStore
}

func NewEventLogService(events repository.EventStore) *EventLogService {
	return &EventLogService{events: events}
}

var _ EventLog = (*EventLogService)(nil)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// Record appends an audit event for an auth transition.
func (s *EventLogService) Record(ctx context.Context, eventType, username string, meta any) error {
	return s.events.Append(ctx, models.AuthEvent{
		Type:     normalizeEventType(eventType),
		Username: username,
		Metadata: meta,
	})
}

func (s *EventLogService) List(ctx context.Context, f EventFilter) ([]models.AuthEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, from, to, typ)
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f EventFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	return from, to, normalizeEventType(f.Type), nil
}
