package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

type publishObserver interface {
    EventPublished(queue string, err error)
}

const (
    dialTimeout    = 3 * time.Second
    publishTimeout = 5 * time.Second
    flushTimeout   = 5 * time.Second
    pendingEvents  = 256
)

// ErrBufferFull is returned when events arrive faster than the broker
// accepts them; the event is dropped.
var ErrBufferFull = errors.New("publish buffer full")

type outgoing struct {
    queue string
    event any
}

// Publisher sends booking events to RabbitMQ.  Publish calls only enqueue
// the event; Run delivers them in the background so a slow or unreachable
// broker never holds up a request.  Each delivery dials its own connection
// so an outage never leaves a broken channel behind.
type Publisher struct {
    url     string
    log     *zap.Logger
    metrics publishObserver
    pending chan outgoing
}

// NewPublisher returns a Publisher for the broker at url.  metrics may be nil.
func NewPublisher(url string, log *zap.Logger, metrics publishObserver) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, log: log, metrics: metrics, pending: make(chan outgoing, pendingEvents)}
}

// PublishBookingConfirmed queues ev for the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(_ context.Context, ev BookingConfirmedEvent) error {
    return p.enqueue(QueueBookingConfirmed, ev)
}

// PublishBookingCancelled queues ev for the booking.cancelled queue.
func (p *Publisher) PublishBookingCancelled(_ context.Context, ev BookingCancelledEvent) error {
    return p.enqueue(QueueBookingCancelled, ev)
}

func (p *Publisher) enqueue(queue string, event any) error {
    select {
    case p.pending <- outgoing{queue: queue, event: event}:
        return nil
    default:
        p.observe(queue, ErrBufferFull)
        return ErrBufferFull
    }
}

// Run delivers queued events until ctx is done, then flushes what is left
// within flushTimeout.
func (p *Publisher) Run(ctx context.Context) {
    for {
        select {
        case <-ctx.Done():
            p.flush()
            return
        case o := <-p.pending:
            sendCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
            p.observe(o.queue, p.publish(sendCtx, o.queue, o.event))
            cancel()
        }
    }
}

func (p *Publisher) flush() {
    deadline := time.Now().Add(flushTimeout)
    for {
        select {
        case o := <-p.pending:
            if time.Now().After(deadline) {
                p.log.Warn("rabbitmq event dropped at shutdown", zap.String("queue", o.queue))
                continue
            }
            ctx, cancel := context.WithDeadline(context.Background(), deadline)
            p.observe(o.queue, p.publish(ctx, o.queue, o.event))
            cancel()
        default:
            return
        }
    }
}

func (p *Publisher) observe(queue string, err error) {
    if p.metrics != nil {
        p.metrics.EventPublished(queue, err)
    }
    if err != nil {
        p.log.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
    }
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
    msg, err := newPublishing(event, time.Now().UTC())
    if err != nil {
        return err
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout),
    })
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := declareQueue(ch, queue); err != nil {
        return err
    }

    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

func newPublishing(event any, at time.Time) (amqp.Publishing, error) {
    body, err := json.Marshal(event)
    if err != nil {
        return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    at,
        Body:         body,
    }, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
    if _, err := ch.QueueDeclare(
        name,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,
    ); err != nil {
        return fmt.Errorf("queue declare %s: %w", name, err)
    }
    return nil
}
