package notify

import (
	"context"
	"errors"
	"fmt"
)

// Composite delegates to multiple sinks, collecting every failure.
type Composite struct {
	sinks []Sink
}

func NewComposite(sinks ...Sink) *Composite {
	c := &Composite{}
	for _, s := range sinks {
		c.Add(s)
	}
	return c
}

// Add appends sink; nil is ignored.
func (c *Composite) Add(sink Sink) {
	if sink != nil {
		c.sinks = append(c.sinks, sink)
	}
}

func (c *Composite) Write(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range c.sinks {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("composite notification write failed: %w", errors.Join(errs...))
	}
	return nil
}
