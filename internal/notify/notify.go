package notify

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/ports"
)

// Log writes progress messages to a logger.
type Log struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *Log {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, requesterID, message string) error {
	l.log.WithField("requester_id", requesterID).Info(message)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, requesterID, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, requesterID, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to ports.Notifier.
type Func func(ctx context.Context, requesterID, message string) error

func (f Func) Notify(ctx context.Context, requesterID, message string) error {
	return f(ctx, requesterID, message)
}
