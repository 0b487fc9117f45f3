package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/notify"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
)

// dedupeTTL keeps a sent-marker alive long enough that the same due cycle
// of a reminder is never pushed twice, even across restarts.
const dedupeTTL = 24 * time.Hour

// Deduper remembers which reminder cycles have already been notified.
type Deduper interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// ReminderNotifier periodically scans for due reminders and pushes a
// notification to each owner's registered devices.
type ReminderNotifier struct {
	plants  domain.PlantRepository
	devices domain.DeviceRepository
	pusher  notify.Pusher
	deduper Deduper
	logger  *slog.Logger
	cron    *cron.Cron
	spec    string
	now     func() time.Time
}

// NewReminderNotifier creates a notifier that scans every interval. A nil
// deduper disables cross-restart deduplication but the notifier still works.
func NewReminderNotifier(
	plants domain.PlantRepository,
	devices domain.DeviceRepository,
	pusher notify.Pusher,
	deduper Deduper,
	logger *slog.Logger,
	interval time.Duration,
) *ReminderNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if interval < time.Minute {
		interval = time.Minute
	}
	return &ReminderNotifier{
		plants:  plants,
		devices: devices,
		pusher:  pusher,
		deduper: deduper,
		logger:  logger,
		cron:    cron.New(),
		spec:    fmt.Sprintf("@every %s", interval),
		now:     time.Now,
	}
}

// Start schedules the scan and blocks until ctx is cancelled.
func (w *ReminderNotifier) Start(ctx context.Context) {
	if _, err := w.cron.AddFunc(w.spec, func() { w.Scan(ctx) }); err != nil {
		w.logger.Error("failed to schedule reminder scan", slog.String("error", err.Error()))
		return
	}
	w.cron.Start()
	w.logger.Info("reminder notifier started", slog.String("schedule", w.spec))

	<-ctx.Done()
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	w.logger.Info("reminder notifier stopped")
}

// Scan runs one pass: find due reminders, group them per owner, skip ones
// already notified for the current cycle and push the rest.
func (w *ReminderNotifier) Scan(ctx context.Context) {
	start := w.now()
	defer func() { metrics.ObserveDueScan(time.Since(start)) }()

	due, err := w.plants.FindDue(ctx, start)
	if err != nil {
		w.logger.Error("due reminder scan failed", slog.String("error", err.Error()))
		return
	}
	if len(due) == 0 {
		return
	}

	byOwner := make(map[string][]domain.DueReminder)
	for _, d := range due {
		if w.alreadyNotified(ctx, d) {
			continue
		}
		byOwner[d.Owner] = append(byOwner[d.Owner], d)
	}

	for owner, reminders := range byOwner {
		w.notifyOwner(ctx, owner, reminders)
	}
}

func (w *ReminderNotifier) alreadyNotified(ctx context.Context, d domain.DueReminder) bool {
	if w.deduper == nil {
		return false
	}
	key := fmt.Sprintf("notified:%s:%d", d.ReminderID, d.NextDue.Unix())
	fresh, err := w.deduper.SetNX(ctx, key, []byte("1"), dedupeTTL)
	if err != nil {
		// Dedupe store down: prefer a duplicate push over a silent miss.
		w.logger.Warn("dedupe check failed", slog.String("error", err.Error()))
		return false
	}
	return !fresh
}

func (w *ReminderNotifier) notifyOwner(ctx context.Context, owner string, reminders []domain.DueReminder) {
	devices, err := w.devices.ListByOwner(ctx, owner)
	if err != nil {
		w.logger.Error("failed to list devices",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(devices) == 0 {
		return
	}

	var messages []notify.Message
	for _, d := range reminders {
		for _, dev := range devices {
			messages = append(messages, notify.Message{
				To:    dev.Token,
				Sound: "default",
				Title: "Plant care reminder",
				Body:  fmt.Sprintf("Time to %s your %s", d.Type, d.PlantName),
			})
		}
	}

	if err := w.pusher.Send(ctx, messages); err != nil {
		w.logger.Error("failed to push reminders",
			slog.String("owner", owner),
			slog.Int("reminders", len(reminders)),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("due reminders pushed",
		slog.String("owner", owner),
		slog.Int("reminders", len(reminders)),
		slog.Int("devices", len(devices)),
	)
}
