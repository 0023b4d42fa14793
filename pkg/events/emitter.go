// Package events handles event emission for connection lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/trellis/pkg/kafka"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes lifecycle change events. These are data-change events
// for downstream consumers, not user notifications.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) emitRequest(ctx context.Context, eventType string, request *models.ConnectionRequest, actorID string) error {
	event := &kafka.ConnectionEvent{
		EventType:    eventType,
		RequestID:    request.ID,
		RequesterID:  request.RequesterID,
		TargetID:     request.TargetID,
		RequestType:  string(request.RequestType),
		Status:       string(request.Status),
		MatchGroupID: request.MatchGroupID,
		ActorID:      actorID,
	}

	if err := e.producer.PublishConnectionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}

// EmitRequestSubmitted emits a request.submitted event
func (e *Emitter) EmitRequestSubmitted(ctx context.Context, request *models.ConnectionRequest) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRequestSubmitted")
	defer span.End()
	return e.emitRequest(ctx, "request.submitted", request, request.RequesterID)
}

// EmitRequestMatched emits a request.matched event
func (e *Emitter) EmitRequestMatched(ctx context.Context, request *models.ConnectionRequest) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRequestMatched")
	defer span.End()
	return e.emitRequest(ctx, "request.matched", request, request.TargetID)
}

// EmitRequestRejected emits a request.rejected event
func (e *Emitter) EmitRequestRejected(ctx context.Context, request *models.ConnectionRequest) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRequestRejected")
	defer span.End()
	return e.emitRequest(ctx, "request.rejected", request, request.TargetID)
}

// EmitRequestCancelled emits a request.cancelled event
func (e *Emitter) EmitRequestCancelled(ctx context.Context, request *models.ConnectionRequest) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRequestCancelled")
	defer span.End()
	return e.emitRequest(ctx, "request.cancelled", request, request.RequesterID)
}

// EmitRequestUnmatched emits a request.unmatched event
func (e *Emitter) EmitRequestUnmatched(ctx context.Context, request *models.ConnectionRequest, initiatorID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRequestUnmatched")
	defer span.End()
	return e.emitRequest(ctx, "request.unmatched", request, initiatorID)
}

// EmitGroupCreated emits a group.created event
func (e *Emitter) EmitGroupCreated(ctx context.Context, group *models.MatchGroup) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitGroupCreated")
	defer span.End()

	event := &kafka.GroupEvent{
		EventType: "group.created",
		GroupID:   group.ID,
		Status:    string(group.Status),
		Members:   group.Members(),
	}

	if err := e.producer.PublishGroupEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit group.created event")
		return err
	}

	return nil
}

// EmitGroupActivated emits a group.activated event
func (e *Emitter) EmitGroupActivated(ctx context.Context, group *models.MatchGroup) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitGroupActivated")
	defer span.End()

	event := &kafka.GroupEvent{
		EventType: "group.activated",
		GroupID:   group.ID,
		Status:    string(group.Status),
		Members:   group.Members(),
	}

	if err := e.producer.PublishGroupEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit group.activated event")
		return err
	}

	return nil
}

// EmitGroupEnded emits a group.ended event
func (e *Emitter) EmitGroupEnded(ctx context.Context, group *models.MatchGroup) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitGroupEnded")
	defer span.End()

	event := &kafka.GroupEvent{
		EventType: "group.ended",
		GroupID:   group.ID,
		Status:    string(group.Status),
		Members:   group.Members(),
	}

	if err := e.producer.PublishGroupEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit group.ended event")
		return err
	}

	return nil
}
