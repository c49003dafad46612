package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

const maxBackoff = 30 * time.Second

// Consumer appends every booking event to an audit file, one line per
// event.
type Consumer struct {
    url  string
    path string
    log  *zap.Logger
}

func NewConsumer(url, path string, log *zap.Logger) *Consumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, path: path, log: log}
}

// Run consumes both booking queues until ctx is cancelled, redialing the
// broker with exponential backoff whenever the connection is lost.
func (c *Consumer) Run(ctx context.Context) {
    backoff := time.Second
    for ctx.Err() == nil {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("booking consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        c.log.Warn("booking consumer: loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("booking consumer: set QoS failed", zap.Error(err))
    }

    confirmed, err := c.subscribe(ch, QueueBookingConfirmed)
    if err != nil {
        return err
    }
    cancelled, err := c.subscribe(ch, QueueBookingCancelled)
    if err != nil {
        return err
    }

    c.log.Info("booking consumer started", zap.String("audit_file", c.path))
    for {
        var (
            d     amqp.Delivery
            ok    bool
            queue string
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-confirmed:
            queue = QueueBookingConfirmed
        case d, ok = <-cancelled:
            queue = QueueBookingCancelled
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := c.Handle(queue, d.Body); err != nil {
            c.log.Error("booking consumer: handle message failed", zap.String("queue", queue), zap.Error(err))
            _ = d.Nack(false, false) // no requeue: a bad message would loop forever
            continue
        }
        _ = d.Ack(false)
    }
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
    if err := declareQueue(ch, queue); err != nil {
        return nil, err
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return nil, fmt.Errorf("queue consume %s: %w", queue, err)
    }
    return msgs, nil
}

// Handle decodes one message from queue and appends its audit line.
func (c *Consumer) Handle(queue string, body []byte) error {
    line, err := formatLine(queue, body)
    if err != nil {
        return err
    }
    if dir := filepath.Dir(c.path); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir %s: %w", dir, err)
        }
    }
    f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write audit file: %w", err)
    }
    return nil
}

func formatLine(queue string, body []byte) (string, error) {
    switch queue {
    case QueueBookingConfirmed:
        var ev BookingConfirmedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        if ev.BookingID == 0 {
            return "", errors.New("event without booking_id")
        }
        return fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | user_id=%d | show_id=%d | theater=%q | screen=%q | movie=%q | show_time=%s | total=%s | payment=%s | ref=%s | seats=[%s]\n",
            ev.ConfirmedAt.UTC().Format(time.RFC3339), ev.BookingID, ev.UserID, ev.ShowID,
            ev.TheaterName, ev.ScreenName, ev.MovieTitle, ev.ShowTime.UTC().Format(time.RFC3339),
            ev.TotalAmount.StringFixed(2), ev.PaymentMode, ev.TransactionRef, strings.Join(ev.Seats, ",")), nil
    case QueueBookingCancelled:
        var ev BookingCancelledEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        if ev.BookingID == 0 {
            return "", errors.New("event without booking_id")
        }
        return fmt.Sprintf("[%s] Booking cancelled | booking_id=%d | user_id=%d | show_id=%d | movie=%q | reason=%q\n",
            ev.CancelledAt.UTC().Format(time.RFC3339), ev.BookingID, ev.UserID, ev.ShowID, ev.MovieTitle, ev.Reason), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}
