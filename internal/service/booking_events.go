package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/pkg/events"
	"github.com/noah-isme/barbershop-api/pkg/jobs"
)

const bookingEventJob = "booking_event"

type slotInvalidator interface {
	InvalidateDate(ctx context.Context, staffID, date string) error
	InvalidateStaff(ctx context.Context, staffID string) error
}

type eventSink interface {
	Publish(ctx context.Context, key, eventID, eventType string, payload []byte) error
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type bookingEventRecorder interface {
	RecordBookingEvent(source, outcome string)
}

// BookingEventDispatcher fans booking changes out to the slot cache and the
// change topic through a background queue.
type BookingEventDispatcher struct {
	queue   jobEnqueuer
	cache   slotInvalidator
	sink    eventSink
	metrics bookingEventRecorder
	logger  *zap.Logger
}

// NewBookingEventDispatcher builds a dispatcher. sink may be nil when Kafka is off.
func NewBookingEventDispatcher(cache slotInvalidator, sink eventSink, metrics bookingEventRecorder, logger *zap.Logger) *BookingEventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingEventDispatcher{cache: cache, sink: sink, metrics: metrics, logger: logger}
}

// Attach sets the queue whose handler is Handle.
func (d *BookingEventDispatcher) Attach(queue jobEnqueuer) {
	d.queue = queue
}

// Publish schedules event for delivery. When the queue cannot take it the
// cache is invalidated inline so readers never see a stale grid.
func (d *BookingEventDispatcher) Publish(ctx context.Context, event models.BookingEvent) {
	if d.queue != nil {
		err := d.queue.TryEnqueue(jobs.Job{ID: event.ID, Type: bookingEventJob, Payload: event})
		if err == nil {
			return
		}
		d.logger.Warn("booking event queue rejected event, invalidating inline",
			zap.String("event_id", event.ID), zap.String("type", event.Type), zap.Error(err))
	}
	if err := invalidateForEvent(ctx, d.cache, event); err != nil {
		d.logger.Warn("inline slot invalidation failed", zap.String("event_id", event.ID), zap.Error(err))
	}
	d.record("inline")
}

// Handle is the queue handler: invalidate, then forward to the topic.
// Returning an error makes the queue retry the job.
func (d *BookingEventDispatcher) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.BookingEvent)
	if !ok {
		d.logger.Error("unexpected booking event payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := invalidateForEvent(ctx, d.cache, event); err != nil {
		d.record("error")
		return fmt.Errorf("invalidate slots for %s: %w", event.StaffID, err)
	}

	if d.sink != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal booking event: %w", err)
		}
		if err := d.sink.Publish(ctx, event.StaffID, event.ID, event.Type, payload); err != nil {
			d.record("error")
			return err
		}
	}
	d.record("ok")
	return nil
}

// OnDrop logs events whose delivery exhausted the queue retries.
func (d *BookingEventDispatcher) OnDrop(job jobs.Job, err error) {
	d.record("dropped")
	d.logger.Error("booking event dropped", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

func (d *BookingEventDispatcher) record(outcome string) {
	if d.metrics != nil {
		d.metrics.RecordBookingEvent("dispatch", outcome)
	}
}

type feedSource interface {
	Run(ctx context.Context, handle events.HandlerFunc) error
}

// ChangeFeedConsumer invalidates cached grids for booking changes written by
// other instances or other writers of the change topic.
type ChangeFeedConsumer struct {
	source  feedSource
	cache   slotInvalidator
	metrics bookingEventRecorder
	logger  *zap.Logger
}

// NewChangeFeedConsumer builds a consumer over source.
func NewChangeFeedConsumer(source feedSource, cache slotInvalidator, metrics bookingEventRecorder, logger *zap.Logger) *ChangeFeedConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeFeedConsumer{source: source, cache: cache, metrics: metrics, logger: logger}
}

// Run consumes until ctx is cancelled.
func (c *ChangeFeedConsumer) Run(ctx context.Context) error {
	return c.source.Run(ctx, c.Handle)
}

// Handle applies one change message. Undecodable messages and messages without
// a staff id are skipped so they do not block the partition.
func (c *ChangeFeedConsumer) Handle(ctx context.Context, msg events.Message) error {
	var event models.BookingEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Warn("skipping undecodable change event", zap.String("event_id", msg.EventID), zap.Error(err))
		c.record("skipped")
		return nil
	}
	if event.StaffID == "" {
		c.record("skipped")
		return nil
	}
	if err := invalidateForEvent(ctx, c.cache, event); err != nil {
		c.record("error")
		return err
	}
	c.record("ok")
	return nil
}

func (c *ChangeFeedConsumer) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordBookingEvent("feed", outcome)
	}
}

func invalidateForEvent(ctx context.Context, cache slotInvalidator, event models.BookingEvent) error {
	if cache == nil {
		return nil
	}
	if event.Date == "" {
		return cache.InvalidateStaff(ctx, event.StaffID)
	}
	var errs []error
	if err := cache.InvalidateDate(ctx, event.StaffID, event.Date); err != nil {
		errs = append(errs, err)
	}
	if event.PreviousDate != "" && event.PreviousDate != event.Date {
		if err := cache.InvalidateDate(ctx, event.StaffID, event.PreviousDate); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
