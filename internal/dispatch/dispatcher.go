// Package dispatch runs the best-effort side effects of a mutation:
// activity logging, notification fan-out, event publishing and websocket
// broadcast. Tasks are dispatched after the primary write commits and their
// failure is logged, counted and dropped; it never reaches the caller.
package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"docket-service/internal/models"
	"docket-service/internal/observability"
	"docket-service/internal/rabbitmq"
	"docket-service/internal/repositories"
	"docket-service/internal/ws"
)

const (
	taskTimeout = 10 * time.Second
	maxAttempts = 3
)

// Event is the envelope published to the AMQP exchange.
type Event struct {
	SchemaVersion int                `json:"schema_version"`
	EventType     string             `json:"event_type"`
	OccurredAt    string             `json:"occurred_at"`
	Service       string             `json:"service"`
	Environment   string             `json:"environment"`
	Activity      models.ActivityLog `json:"activity"`
}

// Dispatcher owns the fire-and-forget pipeline.
type Dispatcher struct {
	activity      repositories.ActivityRepository
	notifications repositories.NotificationRepository
	groups        repositories.GroupRepository
	publisher     rabbitmq.Publisher
	hub           *ws.Hub
	logger        *zap.Logger
	service       string
	environment   string

	wg sync.WaitGroup
}

func New(
	activity repositories.ActivityRepository,
	notifications repositories.NotificationRepository,
	groups repositories.GroupRepository,
	publisher rabbitmq.Publisher,
	hub *ws.Hub,
	logger *zap.Logger,
	service, environment string,
) *Dispatcher {
	return &Dispatcher{
		activity:      activity,
		notifications: notifications,
		groups:        groups,
		publisher:     publisher,
		hub:           hub,
		logger:        logger,
		service:       service,
		environment:   environment,
	}
}

// LogActivity records the entry and fans out its side effects on a detached
// goroutine. notifyCategory selects the notification preference key
// (models.NotifyGroup etc.); "" skips the fan-out.
func (d *Dispatcher) LogActivity(entry models.ActivityLog, notifyCategory string) {
	if d == nil {
		return
	}
	if entry.GroupID.IsZero() || entry.AuthorID.IsZero() {
		d.logger.Warn("activity entry missing ids, dropped",
			zap.String("message", entry.Message))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		d.run(ctx, entry, notifyCategory)
	}()
}

// Wait blocks until all dispatched tasks finish. Used on shutdown and in
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, entry models.ActivityLog, notifyCategory string) {
	var saved models.ActivityLog
	err := d.withRetry(ctx, "activity_log", func() error {
		var err error
		saved, err = d.activity.Create(ctx, entry)
		return err
	})
	if err != nil {
		// Without a feed entry there is nothing to broadcast or fan out.
		return
	}

	if d.hub != nil {
		d.hub.BroadcastActivity(saved.GroupID.Hex(), saved)
	}

	if d.publisher != nil {
		event := Event{
			SchemaVersion: 1,
			EventType:     "group_activity",
			OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
			Service:       d.service,
			Environment:   d.environment,
			Activity:      saved,
		}
		routingKey := "activity." + strings.ToLower(saved.Category)
		if err := d.publisher.Publish(ctx, routingKey, event); err != nil {
			d.logger.Warn("activity event publish failed",
				zap.String("routing_key", routingKey), zap.Error(err))
		}
	}

	if notifyCategory != "" {
		d.notifyGroup(ctx, saved, notifyCategory)
	}
}

// notifyGroup creates one notification per eligible member: the author is
// excluded and a member's explicit false preference opts them out; a
// missing preference counts as enabled.
func (d *Dispatcher) notifyGroup(ctx context.Context, entry models.ActivityLog, category string) {
	group, err := d.groups.GetByID(ctx, entry.GroupID)
	if err != nil {
		d.logger.Warn("notification fan-out: group lookup failed",
			zap.String("group_id", entry.GroupID.Hex()), zap.Error(err))
		observability.IncSideEffectFailure("notification_fanout")
		return
	}

	notifications := make([]models.Notification, 0, len(group.Members))
	for _, member := range group.Members {
		if member.UserID == entry.AuthorID {
			continue
		}
		if enabled, ok := member.NotificationPreferences[category]; ok && !enabled {
			continue
		}
		authorID := entry.AuthorID
		groupID := entry.GroupID
		notifications = append(notifications, models.Notification{
			RecipientID: member.UserID,
			AuthorID:    &authorID,
			GroupID:     &groupID,
			Category:    category,
			Message:     entry.Message,
			Metadata:    entry.Metadata,
		})
	}
	if len(notifications) == 0 {
		return
	}

	_ = d.withRetry(ctx, "notification_fanout", func() error {
		return d.notifications.InsertMany(ctx, notifications)
	})
}

func (d *Dispatcher) withRetry(ctx context.Context, task string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}

	d.logger.Error("side effect failed after retries",
		zap.String("task", task), zap.Error(lastErr))
	observability.IncSideEffectFailure(task)
	return lastErr
}
