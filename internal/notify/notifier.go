// Package notify emails guests when their bookings are confirmed or
// cancelled.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/platform/mailer"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

const QueueGroup = "notify"

type userLookup interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

type Notifier struct {
	bus     events.Subscriber
	users   userLookup
	mail    mailer.Service
	timeout time.Duration
}

func New(bus events.Subscriber, users userLookup, mail mailer.Service) *Notifier {
	return &Notifier{bus: bus, users: users, mail: mail, timeout: 10 * time.Second}
}

// Start joins the notify queue group so each event is mailed once across
// replicas.
func (n *Notifier) Start() error {
	for _, subject := range []string{events.BookingConfirmed, events.BookingCancelled} {
		if err := n.bus.QueueSubscribe(subject, QueueGroup, n.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	logger.Info("Notifier subscribed", "queue", QueueGroup)
	return nil
}

func (n *Notifier) Handle(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, logger.ServiceKey, "notify")

	if err := n.handle(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to send booking notification",
			"subject", msg.Subject, "event_id", msg.ID, "error", err)
	}
}

func (n *Notifier) handle(ctx context.Context, msg *events.Message) error {
	var ev events.BookingEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	u, err := n.users.FindByID(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("find user %d: %w", ev.UserID, err)
	}
	if u == nil {
		logger.WarnContext(ctx, "Booking owner no longer exists", "booking_id", ev.BookingID, "user_id", ev.UserID)
		return nil
	}

	out, ok := compose(msg.Subject, &ev, u)
	if !ok {
		return nil
	}
	if err := n.mail.Send(ctx, out); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	logger.InfoContext(ctx, "Booking notification sent", "booking_id", ev.BookingID, "subject", msg.Subject)
	return nil
}

func compose(subject string, ev *events.BookingEvent, u *domain.User) (mailer.Message, bool) {
	out := mailer.Message{ToEmail: u.Email, ToName: u.Name}
	switch subject {
	case events.BookingConfirmed:
		out.Subject = fmt.Sprintf("Booking #%d confirmed", ev.BookingID)
		out.Text = fmt.Sprintf("Hi %s,\n\nYour stay from %s to %s is confirmed. Total: %s.\n",
			u.Name, ev.CheckIn, ev.CheckOut, ev.TotalPrice)
		out.HTML = fmt.Sprintf("<p>Hi %s,</p><p>Your stay from <b>%s</b> to <b>%s</b> is confirmed. Total: %s.</p>",
			html.EscapeString(u.Name), ev.CheckIn, ev.CheckOut, ev.TotalPrice)
	case events.BookingCancelled:
		out.Subject = fmt.Sprintf("Booking #%d cancelled", ev.BookingID)
		reason := ""
		if ev.Reason != "" {
			reason = " Reason: " + ev.Reason + "."
		}
		out.Text = fmt.Sprintf("Hi %s,\n\nYour stay from %s to %s has been cancelled.%s\n",
			u.Name, ev.CheckIn, ev.CheckOut, reason)
		out.HTML = fmt.Sprintf("<p>Hi %s,</p><p>Your stay from <b>%s</b> to <b>%s</b> has been cancelled.%s</p>",
			html.EscapeString(u.Name), ev.CheckIn, ev.CheckOut, html.EscapeString(reason))
	default:
		return out, false
	}
	return out, true
}
