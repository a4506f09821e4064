// Package notify delivers best-effort notifications for order lifecycle
// events. Delivery is fire-and-forget: failures are logged and never
// surface to the code that triggered the event.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event kinds.
const (
	KindStatusChanged = "status_changed"
	KindPromo         = "promo"
)

// Event describes something notification consumers may care about:
// an order status change (including the OTP when the order becomes
// ready for pickup) or a promotional announcement.
type Event struct {
	Kind        string    `json:"kind"`
	OrderID     int64     `json:"orderId,omitempty"`
	TokenNumber int       `json:"tokenNumber,omitempty"`
	Status      string    `json:"status,omitempty"`
	UserEmail   string    `json:"userEmail,omitempty"`
	UserName    string    `json:"userName,omitempty"`
	OTP         string    `json:"otp,omitempty"`
	Title       string    `json:"title,omitempty"`
	Body        string    `json:"body,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Notifier delivers a single event to one transport.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Dispatcher fans an event out to all configured notifiers on a
// background goroutine. Emit never blocks on delivery and never
// returns an error.
type Dispatcher struct {
	notifiers []Notifier
	lg        *zap.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil logger is replaced with a
// no-op logger.
func NewDispatcher(lg *zap.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if lg == nil {
		lg = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		notifiers: notifiers,
		lg:        lg,
		timeout:   timeout,
	}
}

// Emit schedules asynchronous delivery of the event and returns
// immediately.
func (d *Dispatcher) Emit(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				d.lg.Error("notifier panic", zap.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, n := range d.notifiers {
			if err := n.Notify(ctx, e); err != nil {
				d.lg.Warn("notification delivery failed",
					zap.String("kind", e.Kind),
					zap.Int64("order_id", e.OrderID),
					zap.Error(err),
				)
			}
		}
	}()
}

// Close waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

// LogNotifier writes events to the application log. It stands in for a
// real push/email transport when none is configured.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Notify logs the event. OTPs are not logged.
func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.lg.Info("notification",
		zap.String("kind", e.Kind),
		zap.Int64("order_id", e.OrderID),
		zap.Int("token", e.TokenNumber),
		zap.String("status", e.Status),
		zap.String("user", e.UserEmail),
		zap.Bool("has_otp", e.OTP != ""),
	)
	return nil
}
