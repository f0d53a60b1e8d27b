// Package publish forwards race snapshots and events to external renderers.
package publish

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/model"
)

type (
	// Frame is the output of a single tick
	Frame struct {
		Snapshot *model.Snapshot
		Events   []model.RaceEvent
	}

	// Conn is satisfied by *nats.Conn
	Conn interface {
		Publish(subj string, data []byte) error
	}

	// Feed publishes frames to subjects below race.<raceID>
	Feed struct {
		conn          Conn
		raceID        string
		snapshotEvery int64
		numPublished  atomic.Int64
		numErrors     atomic.Int64
		log           *log.Logger
	}
	FeedOption func(*Feed)

	// ChannelListener hands frames to a channel without blocking the simulation.
	// Frames are dropped if the channel is full unless the listener is blocking.
	ChannelListener struct {
		ch       chan Frame
		blocking bool
		dropped  atomic.Int64
	}
	ChannelListenerOption func(*ChannelListener)
)

func WithSnapshotEvery(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.snapshotEvery = int64(n)
		}
	}
}

func WithLogger(l *log.Logger) FeedOption {
	return func(f *Feed) {
		f.log = l
	}
}

func NewFeed(conn Conn, raceID string, opts ...FeedOption) *Feed {
	ret := &Feed{
		conn:          conn,
		raceID:        raceID,
		snapshotEvery: 1,
		log:           log.Default().Named("publish"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func SnapshotSubject(raceID string) string {
	return fmt.Sprintf("race.%s.snapshot", raceID)
}

func EventSubject(raceID string) string {
	return fmt.Sprintf("race.%s.events", raceID)
}

// Run publishes all frames of ch until ch is closed or ctx is done.
func (f *Feed) Run(ctx context.Context, ch <-chan Frame) {
	for {
		select {
		case <-ctx.Done():
			f.log.Debug("feed stopped by context")
			return
		case frame, ok := <-ch:
			if !ok {
				f.log.Debug("feed source closed",
					log.Int64("published", f.numPublished.Load()),
					log.Int64("errors", f.numErrors.Load()))
				return
			}
			f.Publish(&frame)
		}
	}
}

// Publish sends the events of the frame and, depending on the configured
// interval, the snapshot. Events are never skipped.
func (f *Feed) Publish(frame *Frame) {
	for i := range frame.Events {
		f.send(EventSubject(f.raceID), &frame.Events[i])
	}
	snap := frame.Snapshot
	if snap == nil {
		return
	}
	if snap.Tick%f.snapshotEvery == 0 || snap.Finished {
		f.send(SnapshotSubject(f.raceID), snap)
	}
}

func (f *Feed) Published() int64 { return f.numPublished.Load() }
func (f *Feed) Errors() int64    { return f.numErrors.Load() }

func (f *Feed) send(subj string, data any) {
	payload, err := oj.Marshal(data)
	if err != nil {
		f.numErrors.Add(1)
		f.log.Warn("could not encode message", log.String("subject", subj), log.ErrorField(err))
		return
	}
	if err := f.conn.Publish(subj, payload); err != nil {
		f.numErrors.Add(1)
		f.log.Warn("could not publish message", log.String("subject", subj), log.ErrorField(err))
		return
	}
	f.numPublished.Add(1)
}

// Blocking makes OnTick wait for free space. Use it only if the race is not
// bound to the wall clock.
func Blocking() ChannelListenerOption {
	return func(c *ChannelListener) {
		c.blocking = true
	}
}

func NewChannelListener(size int, opts ...ChannelListenerOption) *ChannelListener {
	ret := &ChannelListener{ch: make(chan Frame, size)}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *ChannelListener) OnTick(snap *model.Snapshot, events []model.RaceEvent) {
	if c.blocking {
		c.ch <- Frame{Snapshot: snap, Events: events}
		return
	}
	select {
	case c.ch <- Frame{Snapshot: snap, Events: events}:
	default:
		c.dropped.Add(1)
	}
}

// C returns the channel frames are delivered to
func (c *ChannelListener) C() <-chan Frame { return c.ch }

func (c *ChannelListener) Dropped() int64 { return c.dropped.Load() }

// Close closes the channel. OnTick must not be called afterwards.
func (c *ChannelListener) Close() { close(c.ch) }
