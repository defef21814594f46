package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nsqio/go-nsq"

	"rideledger/internal/domain"
)

const (
	// eventBufferSize bounds the normalized-event queue between the
	// subscription handlers and the fold loop.
	eventBufferSize = 256

	// applyTimeout bounds a single event fold.
	applyTimeout = 10 * time.Second
)

// EventApplier folds normalized ledger events into the ride projection.
type EventApplier interface {
	ApplyEvent(ctx context.Context, evt domain.Event) error
}

// ListenerConfig holds the notification topology.
type ListenerConfig struct {
	NSQDAddr     string
	AccountTopic string
	LogsTopic    string
	Channel      string
}

// Listener consumes the two ledger notification classes, normalizes them
// into domain events, and folds them through the reconciliation engine in a
// dedicated single-consumer loop. A malformed payload is logged and dropped;
// it never crashes the listener and never reaches a caller.
type Listener struct {
	cfg     ListenerConfig
	applier EventApplier

	events chan domain.Event
	done   chan struct{}

	accountConsumer *nsq.Consumer
	logsConsumer    *nsq.Consumer
}

// NewListener creates a Listener for the given topology.
func NewListener(cfg ListenerConfig, applier EventApplier) (*Listener, error) {
	l := &Listener{
		cfg:     cfg,
		applier: applier,
		events:  make(chan domain.Event, eventBufferSize),
		done:    make(chan struct{}),
	}

	nsqCfg := nsq.NewConfig()

	accountConsumer, err := nsq.NewConsumer(cfg.AccountTopic, cfg.Channel, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create account consumer: %w", err)
	}
	accountConsumer.AddHandler(nsq.HandlerFunc(l.handleAccountMessage))

	logsConsumer, err := nsq.NewConsumer(cfg.LogsTopic, cfg.Channel, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logs consumer: %w", err)
	}
	logsConsumer.AddHandler(nsq.HandlerFunc(l.handleLogsMessage))

	l.accountConsumer = accountConsumer
	l.logsConsumer = logsConsumer
	return l, nil
}

// Start connects both subscriptions and launches the fold loop. The loop
// runs until ctx is cancelled or Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.accountConsumer.ConnectToNSQD(l.cfg.NSQDAddr); err != nil {
		return fmt.Errorf("failed to connect account consumer: %w", err)
	}
	if err := l.logsConsumer.ConnectToNSQD(l.cfg.NSQDAddr); err != nil {
		return fmt.Errorf("failed to connect logs consumer: %w", err)
	}

	go l.run(ctx)
	return nil
}

// Stop unsubscribes and stops the fold loop.
func (l *Listener) Stop() {
	l.accountConsumer.Stop()
	l.logsConsumer.Stop()
	close(l.done)
}

// run is the single consumer of the normalized-event queue. One fold at a
// time preserves per-source ordering; per-ride serialization inside the
// engine guards against redelivery races.
func (l *Listener) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case evt := <-l.events:
			applyCtx, cancel := context.WithTimeout(ctx, applyTimeout)
			if err := l.applier.ApplyEvent(applyCtx, evt); err != nil {
				// No synchronous caller is waiting on an event fold.
				log.Printf("ride %s: failed to fold %s event from slot %d: %v",
					evt.RideID, evt.Kind, evt.Slot, err)
			}
			cancel()
		}
	}
}

// handleAccountMessage decodes an account-change notification into a domain
// event. Returning nil in every branch keeps malformed payloads from being
// requeued forever.
func (l *Listener) handleAccountMessage(msg *nsq.Message) error {
	msg.Touch()
	l.ingestAccount(msg.Body)
	return nil
}

func (l *Listener) ingestAccount(body []byte) {
	var n AccountNotification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Printf("dropping undecodable account notification: %v", err)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(n.Data)
	if err != nil {
		log.Printf("account %s: dropping notification with bad base64 data: %v", n.Pubkey, err)
		return
	}

	account, err := DecodeRideAccount(raw)
	if err != nil {
		log.Printf("account %s: dropping notification: %v", n.Pubkey, err)
		return
	}

	evt := domain.Event{
		RideID:     n.Pubkey,
		Kind:       EventKindForStatus(account.Status),
		Slot:       n.Slot,
		ObservedAt: time.Now(),
	}

	select {
	case l.events <- evt:
	case <-l.done:
	}
}

// handleLogsMessage records program log notifications. Logs do not identify
// the ride account, so they feed observability only; account-change
// notifications drive the actual transitions.
func (l *Listener) handleLogsMessage(msg *nsq.Message) error {
	msg.Touch()
	l.ingestLogs(msg.Body)
	return nil
}

func (l *Listener) ingestLogs(body []byte) {
	var n LogsNotification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Printf("dropping undecodable logs notification: %v", err)
		return
	}

	instruction := ParseInstruction(n.Logs)
	if n.Err != nil {
		log.Printf("tx %s: ride program transaction failed at slot %d (instruction=%q): %s",
			n.Signature, n.Slot, instruction, *n.Err)
		return
	}

	log.Printf("tx %s: ride program transaction at slot %d (instruction=%q)",
		n.Signature, n.Slot, instruction)
}
