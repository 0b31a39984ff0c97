package events

import (
	"context"
	"errors"
)

// Fanout delivers each event to every publisher and joins their errors.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(pubs ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

func (f *Fanout) Add(p Publisher) {
	if p != nil {
		f.publishers = append(f.publishers, p)
	}
}

func (f *Fanout) Publish(ctx context.Context, e BookingEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
