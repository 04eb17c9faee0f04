package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("hotel-bookings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(fromNATS(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(fromNATS(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

func fromNATS(msg *nats.Msg) *Message {
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}
}

// ErrBusClosed is returned when publishing to a closed MemoryEventBus.
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus delivers events in-process on a single background
// goroutine, in publish order. It backs local development without NATS and
// is handy in tests. Publish never waits for handlers.
type MemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(*Message)

	qmu     sync.Mutex
	ready   *sync.Cond
	idle    *sync.Cond
	queue   []delivery
	pending int
	closed  bool
	done    chan struct{}
}

type delivery struct {
	msg      *Message
	handlers []func(*Message)
}

func NewMemoryEventBus() *MemoryEventBus {
	m := &MemoryEventBus{
		handlers: make(map[string][]func(*Message)),
		done:     make(chan struct{}),
	}
	m.ready = sync.NewCond(&m.qmu)
	m.idle = sync.NewCond(&m.qmu)
	go m.run()
	return m
}

func (m *MemoryEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	m.mu.RLock()
	handlers := append([]func(*Message){}, m.handlers[subject]...)
	m.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))
	msg := &Message{Subject: subject, Data: payload, Timestamp: time.Now(), ID: uuid.NewString()}

	m.qmu.Lock()
	defer m.qmu.Unlock()
	if m.closed {
		return ErrBusClosed
	}
	m.queue = append(m.queue, delivery{msg: msg, handlers: handlers})
	m.pending++
	m.ready.Signal()
	return nil
}

func (m *MemoryEventBus) run() {
	defer close(m.done)
	for {
		m.qmu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.ready.Wait()
		}
		if len(m.queue) == 0 {
			m.qmu.Unlock()
			return
		}
		d := m.queue[0]
		m.queue[0] = delivery{}
		m.queue = m.queue[1:]
		m.qmu.Unlock()

		for _, h := range d.handlers {
			dispatch(h, d.msg)
		}

		m.qmu.Lock()
		m.pending--
		if m.pending == 0 {
			m.idle.Broadcast()
		}
		m.qmu.Unlock()
	}
}

func dispatch(h func(*Message), msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event handler panicked", "subject", msg.Subject, "panic", r)
		}
	}()
	h(msg)
}

// Wait blocks until every event published so far has been handled.
func (m *MemoryEventBus) Wait() {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	for m.pending > 0 {
		m.idle.Wait()
	}
}

func (m *MemoryEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[subject] = append(m.handlers[subject], handler)
	return nil
}

// QueueSubscribe ignores the queue group; there is only one process.
func (m *MemoryEventBus) QueueSubscribe(subject, _ string, handler func(msg *Message)) error {
	return m.Subscribe(subject, handler)
}

// Close stops accepting events and returns once the queued ones are handled.
func (m *MemoryEventBus) Close() error {
	m.qmu.Lock()
	if !m.closed {
		m.closed = true
		m.ready.Broadcast()
	}
	m.qmu.Unlock()
	<-m.done
	return nil
}

// Subjects
const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	PaymentCompleted = "payment.completed"
	PaymentFailed    = "payment.failed"
	PaymentRefunded  = "payment.refunded"
)

type BookingEvent struct {
	BookingID  int64     `json:"booking_id"`
	UserID     int64     `json:"user_id"`
	RoomID     int64     `json:"room_id"`
	CheckIn    string    `json:"check_in_date"`
	CheckOut   string    `json:"check_out_date"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PaymentEvent struct {
	PaymentID     int64     `json:"payment_id"`
	BookingID     int64     `json:"booking_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
