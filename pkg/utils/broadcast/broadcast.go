// Package broadcast fans out messages of a single source channel to any number
// of subscribers. Slow subscribers miss messages instead of blocking the source.
package broadcast

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/quizrace/log"
)

const DefaultSendTimeout = 20 * time.Millisecond

type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
	// Done is closed once the server stopped serving
	Done() <-chan struct{}
}

type broadcastServer[T any] struct {
	name           string
	eventKey       string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	bufferSize     int
	sendTimeout    time.Duration
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListeners   atomic.Int64
	log            *log.Logger
}

type Option[T any] func(*broadcastServer[T])

// WithTelemetry registers observable gauges for the server under the given event key
func WithTelemetry[T any](eventKey string) Option[T] {
	return func(b *broadcastServer[T]) {
		b.eventKey = eventKey
	}
}

// WithBufferSize sets the channel capacity of each subscription
func WithBufferSize[T any](n int) Option[T] {
	return func(b *broadcastServer[T]) {
		if n >= 0 {
			b.bufferSize = n
		}
	}
}

// WithSendTimeout sets how long a message waits for a busy subscriber before it is skipped
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T, b.bufferSize)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *broadcastServer[T]) Close() {
	b.log.Info("Closing broadcast server",
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	b.cancel()
	<-b.done
}

func (b *broadcastServer[T]) Done() <-chan struct{} {
	return b.done
}

// NewBroadcastServer serves until Close is called or source is closed.
//
//nolint:whitespace // false positive
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		sendTimeout:    DefaultSendTimeout,
		log:            log.Default().Named("broadcast").With(log.String("name", name)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.eventKey != "" {
		b.setupMetrics()
	}
	go b.serve()
	return b
}

//nolint:lll,funlen // readability
func (b *broadcastServer[T]) setupMetrics() {
	b.log.Debug("Setting up metrics", log.String("eventKey", b.eventKey))
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("quizrace.broadcast.%s", b.name))
	register := func(metricName, desc, unit string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit(unit),

			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("event", b.eventKey),
					),
				)
				return nil
			})); err != nil {
			b.log.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	type data struct {
		name  string
		desc  string
		unit  string
		value func() int64
	}
	for _, d := range []*data{
		{"quizrace.broadcast.rcv", "Number of received messages", "{count}", b.numRcv.Load},
		{"quizrace.broadcast.snd", "Number of sent messages", "{count}", b.numSnd.Load},
		{"quizrace.broadcast.skip", "Number of skipped messages", "{count}", b.numSkip.Load},
		{"quizrace.broadcast.listener", "Number of listeners", "{count}", b.numListeners.Load},
	} {
		register(d.name, d.desc, d.unit, d.value)
	}
}

//nolint:funlen,cyclop // by design
func (b *broadcastServer[T]) serve() {
	defer func() {
		b.log.Debug("Closing listeners", log.Int("len", len(b.listeners)))
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.numListeners.Store(0)
		close(b.done)
	}()
	timer := time.NewTimer(b.sendTimeout)
	timer.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListeners.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			idx := slices.IndexFunc(b.listeners, func(l chan T) bool { return l == ch })
			if idx != -1 {
				close(b.listeners[idx])
				b.listeners = slices.Delete(b.listeners, idx, idx+1)
				b.numListeners.Store(int64(len(b.listeners)))
				b.log.Debug("removed listener", log.Int("len", len(b.listeners)))
			}
		case msg, ok := <-b.source:
			if !ok {
				b.log.Debug("source closed")
				return
			}
			b.numRcv.Add(1)
			for _, listener := range b.listeners {
				select {
				case listener <- msg:
					b.numSnd.Add(1)
					continue
				default:
				}
				timer.Reset(b.sendTimeout)
				select {
				case listener <- msg:
					b.numSnd.Add(1)
				case <-timer.C:
					b.numSkip.Add(1)
				}
				timer.Stop()
			}
		}
	}
}
