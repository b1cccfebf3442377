package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"gardenlog/events"
)

type message struct {
	ID         string
	PopReceipt string
	Text       string
}

type queue interface {
	// Receive returns the next visible message, or false when the queue is empty.
	Receive(ctx context.Context) (message, bool, error)
	Delete(ctx context.Context, msg message) error
}

type activityRecorder interface {
	Record(ctx context.Context, env events.Envelope) error
}

type processor struct {
	queue     queue
	feed      activityRecorder
	publisher events.Publisher
	logger    *log.Logger
	idle      time.Duration
}

// handle applies one queued envelope. Undecodable messages are dropped.
// A returned error leaves the message on the queue for redelivery.
func (p *processor) handle(ctx context.Context, text string) error {
	env, err := events.DecodeEnvelope([]byte(text))
	if err != nil {
		p.logger.WithError(err).Warn("dropping malformed event")
		return nil
	}
	entry := p.logger.WithFields(log.Fields{
		"event":  env.ID,
		"type":   env.Type,
		"entity": env.EntityID,
	})
	if err := p.feed.Record(ctx, env); err != nil {
		return err
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, env, []byte(text)); err != nil {
			entry.WithError(err).Error("unable to publish live update")
		}
	}
	entry.Debug("event processed")
	return nil
}

// run polls the queue until ctx is cancelled.
func (p *processor) run(ctx context.Context) {
	for ctx.Err() == nil {
		if !p.step(ctx) {
			select {
			case <-ctx.Done():
			case <-time.After(p.idle):
			}
		}
	}
}

// step handles at most one message and reports whether one was found.
func (p *processor) step(ctx context.Context) bool {
	msg, ok, err := p.queue.Receive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.WithError(err).Error("receive")
		}
		return false
	}
	if !ok {
		return false
	}
	if err := p.handle(ctx, msg.Text); err != nil {
		p.logger.WithError(err).WithField("message", msg.ID).Error("process event")
		return true
	}
	if err := p.queue.Delete(ctx, msg); err != nil {
		p.logger.WithError(err).WithField("message", msg.ID).Error("delete message")
	}
	return true
}
