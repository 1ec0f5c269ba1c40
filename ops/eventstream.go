// ops/eventstream.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"groundctl/conflict"
	"groundctl/log"
)

// EventStream provides a basic pub/sub event interface: the coordinator
// posts events as it makes decisions and any part of the surrounding
// application can subscribe and consume them at its own pace.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]interface{}
	lastPost      time.Time
	warnedLong    bool
	done          chan struct{}
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset in the stream's event array up to which this subscriber has
	// consumed events.
	offset  int
	source  string
	lastGet time.Time
}

func NewEventStream(lg *log.Logger) *EventStream {
	es := &EventStream{
		subscriptions: make(map[*EventsSubscription]interface{}),
		lastPost:      time.Now(),
		done:          make(chan struct{}),
		lg:            lg,
	}
	go es.monitor()
	return es
}

// Subscribe registers a new subscriber; events posted before subscription
// are never reported to it.
func (e *EventStream) Subscribe() *EventsSubscription {
	// Record the subscriber's callsite to ease debugging subscribers that
	// aren't consuming events.
	_, fn, line, _ := runtime.Caller(1)

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &EventsSubscription{
		stream:  e,
		offset:  len(e.events),
		source:  fmt.Sprintf("%s:%d", fn, line),
		lastGet: time.Now(),
	}
	e.subscriptions[sub] = nil
	return sub
}

func (e *EventStream) monitor() {
	tick := time.Tick(5 * time.Second)

	for {
		<-tick

		select {
		case <-e.done:
			return
		default:
		}

		e.mu.Lock()

		e.compact()

		if len(e.events) > 1000 && !e.warnedLong {
			// It's likely that one of the subscribers is out to lunch if
			// the stream has grown this long.
			e.lg.Warn("long event stream", slog.Int("length", len(e.events)),
				slog.Int("subscribers", len(e.subscriptions)))
			e.warnedLong = true
		}

		e.mu.Unlock()
	}
}

func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("attempted to unsubscribe invalid subscription: %s", e.source)
	}
	delete(e.stream.subscriptions, e)
	e.stream = nil
}

// Post adds an event to the stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.lastPost = time.Now()
		e.events = append(e.events, event)
	}
}

// Get returns the events posted since the subscriber's last Get.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("attempted to get with unregistered subscription: %s", e.source)
		return nil
	}

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)
	e.lastGet = time.Now()

	return events
}

func (e *EventStream) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	close(e.done)
	clear(e.subscriptions)
}

// compact reclaims storage for events that all subscribers have seen so
// that stream memory doesn't grow without bound.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		if sub.offset < minOffset {
			minOffset = sub.offset
		}
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false // reset this after a successful compact.
	}
}

///////////////////////////////////////////////////////////////////////////

type EventType int

const (
	AircraftAddedEvent EventType = iota
	AircraftDroppedEvent
	RouteAssignedEvent
	ClearanceEvent
	RunwayAssignedEvent
	ConflictDetectedEvent
	ConflictEscalatedEvent
	ManeuverIssuedEvent
	CautionEvent
	StatusMessageEvent
	NumEventTypes
)

func (t EventType) String() string {
	return [...]string{"AircraftAdded", "AircraftDropped", "RouteAssigned", "Clearance",
		"RunwayAssigned", "ConflictDetected", "ConflictEscalated", "ManeuverIssued",
		"Caution", "StatusMessage"}[t]
}

type Event struct {
	Type          EventType
	Callsign      string
	OtherCallsign string // conflict events
	Runway        string
	WrittenText   string
	Conflict      *conflict.Record // conflict events
}

func (e Event) String() string {
	return fmt.Sprintf("%s: callsign %q other %q runway %q text %q",
		e.Type, e.Callsign, e.OtherCallsign, e.Runway, e.WrittenText)
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String())}
	if e.Callsign != "" {
		attrs = append(attrs, slog.String("callsign", e.Callsign))
	}
	if e.OtherCallsign != "" {
		attrs = append(attrs, slog.String("other_callsign", e.OtherCallsign))
	}
	if e.Runway != "" {
		attrs = append(attrs, slog.String("runway", e.Runway))
	}
	if e.WrittenText != "" {
		attrs = append(attrs, slog.String("written_text", e.WrittenText))
	}
	return slog.GroupValue(attrs...)
}
