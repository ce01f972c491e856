// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/metrics"
)

const (
	exchangeName = "readsphere.events"
	exchangeType = "topic"

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second

	reconnectInterval = 5 * time.Second

	queueSize = 256
)

// AMQPPublisher publishes events to a RabbitMQ topic exchange from a background worker.
// The worker redials a dropped connection before the next publish and on a timer.
type AMQPPublisher struct {
	url string

	mu       sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewAMQPPublisher creates a new event publisher
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		url:   url,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	if err := p.connect(); err != nil {
		return nil, err
	}

	p.wg.Add(1)
	go p.run()

	logrus.WithField("exchange", exchangeName).Info("Connected to RabbitMQ")
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange
	if err := channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Enable publisher confirms for reliability
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = channel
	p.confirms = channel.NotifyPublish(make(chan amqp.Confirmation, queueSize))
	p.mu.Unlock()
	return nil
}

// ensureConnected redials when the connection or channel has gone away
func (p *AMQPPublisher) ensureConnected() error {
	if p.IsHealthy() {
		return nil
	}

	p.disconnect()
	if err := p.connect(); err != nil {
		return err
	}
	logrus.WithField("exchange", exchangeName).Info("Reconnected to RabbitMQ")
	return nil
}

func (p *AMQPPublisher) disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil && !p.channel.IsClosed() {
		if err := p.channel.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close channel")
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close connection")
		}
	}
	p.conn = nil
	p.channel = nil
	p.confirms = nil
}

// Publish enqueues the event; it never blocks the calling request
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	event := NewEvent(ctx, eventType, payload)

	select {
	case <-p.done:
		return fmt.Errorf("publisher closed")
	default:
	}

	select {
	case p.queue <- event:
		return nil
	default:
		metrics.EventsPublished.WithLabelValues(eventType, "dropped").Inc()
		return fmt.Errorf("event queue full, dropped %s", eventType)
	}
}

func (p *AMQPPublisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-p.queue:
			p.deliver(event)
		case <-ticker.C:
			if err := p.ensureConnected(); err != nil {
				logrus.WithError(err).Warn("RabbitMQ reconnect failed")
			}
		case <-p.done:
			// Drain what is already queued
			for {
				select {
				case event := <-p.queue:
					p.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (p *AMQPPublisher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.publishWithRetry(ctx, event.EventType, event); err != nil {
		metrics.EventsPublished.WithLabelValues(event.EventType, "error").Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues(event.EventType, "success").Inc()
}

// publishWithRetry publishes an event with exponential backoff retry
func (p *AMQPPublisher) publishWithRetry(ctx context.Context, routingKey string, event Event) error {
	log := logrus.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.EventType,
	})

	body, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		if err := p.ensureConnected(); err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt+1).Warn("RabbitMQ unavailable, retrying")
			continue
		}

		p.mu.RLock()
		channel, confirms := p.channel, p.confirms
		p.mu.RUnlock()

		tag := channel.GetNextPublishSeqNo()
		err := channel.PublishWithContext(
			ctx,
			exchangeName,
			routingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				Timestamp:     time.Now(),
				MessageId:     event.EventID,
				CorrelationId: event.CorrelationID,
				Body:          body,
				Headers: amqp.Table{
					"event_type":    event.EventType,
					"event_version": event.EventVersion,
				},
			},
		)
		if err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt+1).Warn("Failed to publish event, retrying")
			continue
		}

		acked, err := waitForConfirm(ctx, confirms, tag, confirmTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = err
		} else if acked {
			log.WithField("routing_key", routingKey).Debug("Event published successfully")
			return nil
		} else {
			lastErr = fmt.Errorf("event not acknowledged")
		}

		log.WithError(lastErr).WithField("attempt", attempt+1).Warn("Event publish not confirmed, retrying")
	}

	log.WithError(lastErr).WithField("attempts", maxRetries).Error("Failed to publish event after retries")
	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

// waitForConfirm waits for the confirmation of the publish with the given delivery tag.
// Confirmations for lower tags arrive late from publishes that already timed out and are skipped.
func waitForConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return false, fmt.Errorf("confirm channel closed")
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			if confirm.DeliveryTag > tag {
				return false, fmt.Errorf("confirmation for delivery tag %d was skipped", tag)
			}
			return confirm.Ack, nil
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, fmt.Errorf("confirmation timeout")
		}
	}
}

// IsHealthy checks if the publisher connection is healthy
func (p *AMQPPublisher) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed()
}

// Close stops the worker after draining queued events, then closes the connection
func (p *AMQPPublisher) Close() error {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.disconnect()
		logrus.Info("Publisher closed")
	})
	return nil
}

// NewPublisher returns an AMQP publisher when url is set, otherwise a no-op one
func NewPublisher(url string) Publisher {
	if url == "" {
		logrus.Info("RABBITMQ_URL not set, domain events disabled")
		return NoopPublisher{}
	}

	publisher, err := NewAMQPPublisher(url)
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, domain events disabled")
		return NoopPublisher{}
	}
	return publisher
}
