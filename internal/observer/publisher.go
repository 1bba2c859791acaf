package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-exam-scanner/internal/logger"

	"github.com/sirupsen/logrus"
)

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer by name
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription order
// on the calling goroutine. A panicking observer is recovered and reported
// as an error; the remaining observers still run.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) error {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	var errs []error
	for _, obs := range observers {
		if err := notify(ctx, obs, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", obs.GetObserverName(), err))
		}
	}
	return errors.Join(errs...)
}

func notify(ctx context.Context, obs Observer, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"observer": obs.GetObserverName(),
				"panic":    r,
			}).Error("Observer panicked while handling event")
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return obs.OnEvent(ctx, event)
}
