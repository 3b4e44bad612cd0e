package inputbridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// Sink accepts camera commands. *loop.Runner satisfies it.
type Sink interface {
	Post(fn func(*camera.Controller)) error
}

// Stats counts processed lines.
type Stats struct {
	Applied  uint64 `json:"applied"`
	Rejected uint64 `json:"rejected"`
	Dropped  uint64 `json:"dropped"`
}

// Bridge forwards decoded events from a line stream to a Sink.
type Bridge struct {
	sink Sink
	name string

	applied  atomic.Uint64
	rejected atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a bridge. name labels log lines.
func New(sink Sink, name string) *Bridge {
	return &Bridge{sink: sink, name: name}
}

// Stats returns the current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Applied:  b.applied.Load(),
		Rejected: b.rejected.Load(),
		Dropped:  b.dropped.Load(),
	}
}

// Handle decodes and posts one line. Blank lines are ignored.
func (b *Bridge) Handle(line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	ev, err := Decode(line)
	if err != nil {
		b.rejected.Add(1)
		return err
	}
	err = b.sink.Post(func(c *camera.Controller) {
		if err := Apply(c, ev); err != nil {
			monitoring.Logf("[Bridge] %s: %v", b.name, err)
		}
	})
	if err != nil {
		b.dropped.Add(1)
		return err
	}
	b.applied.Add(1)
	return nil
}

// Run reads lines from r until EOF or ctx is cancelled. Bad lines are logged
// and skipped; EOF returns nil.
func (b *Bridge) Run(ctx context.Context, r io.Reader) error {
	scan := bufio.NewScanner(r)

	lineChan := make(chan []byte)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is not
	// held up by a quiet port.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			line := append([]byte(nil), scan.Bytes()...)
			select {
			case lineChan <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	monitoring.Logf("[Bridge] %s: reading input events", b.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
				}
				st := b.Stats()
				monitoring.Logf("[Bridge] %s: input closed (applied=%d rejected=%d dropped=%d)",
					b.name, st.Applied, st.Rejected, st.Dropped)
				return nil
			}
			if err := b.Handle(line); err != nil {
				if errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrUnknownEvent) {
					monitoring.Logf("[Bridge] %s: skipping line %q: %v", b.name, line, err)
					continue
				}
				monitoring.Logf("[Bridge] %s: %v", b.name, err)
			}
		}
	}
}
