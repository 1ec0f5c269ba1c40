// ops/coordinator.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ops runs surface operations for one airport: it owns the mutable
// per-aircraft state, drives the fast conflict-detection cycle and the
// slower sequencing/clearance cycle, and issues control commands to the
// host application.
package ops

import (
	"context"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"groundctl/airport"
	"groundctl/clearance"
	"groundctl/conflict"
	"groundctl/log"
	"groundctl/math"
	"groundctl/route"
	"groundctl/util"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	telemetryBuffer = 256
	commandBuffer   = 64

	// An active takeoff clearance is complete once the aircraft is rolling
	// faster than any taxi operation; an active landing once it has slowed
	// back to taxi speed.
	takeoffCompleteSpeed = 60 // m/s
	landingCompleteSpeed = 15 // m/s
)

// Coordinator is the sole owner and mutator of per-aircraft surface state.
// All other components receive read-only snapshots and return pure results
// that the coordinator applies under its lock.
type Coordinator struct {
	mu sync.Mutex
	lg *log.Logger

	ap     *airport.Airport
	config Config

	finder    *route.Finder
	predictor *conflict.Predictor
	resolver  *conflict.Resolver

	eventStream *EventStream

	aircraft map[string]*Aircraft
	wind     airport.WindVector
	paused   bool

	telemetry        chan Telemetry
	droppedTelemetry atomic.Int64

	commands        chan Command
	limiter         *rate.Limiter
	droppedCommands atomic.Int64

	conflictCallbacks []func(conflict.Record)
}

func NewCoordinator(ap *airport.Airport, config Config, lg *log.Logger) *Coordinator {
	finder := route.NewFinder(ap, lg)
	predictor := conflict.NewPredictor(config.Prediction, lg)

	return &Coordinator{
		lg:          lg,
		ap:          ap,
		config:      config,
		finder:      finder,
		predictor:   predictor,
		resolver:    conflict.NewResolver(predictor, lg),
		eventStream: NewEventStream(lg),
		aircraft:    make(map[string]*Aircraft),
		telemetry:   make(chan Telemetry, telemetryBuffer),
		commands:    make(chan Command, commandBuffer),
		limiter:     rate.NewLimiter(rate.Limit(config.CommandRate), config.CommandBurst),
	}
}

// Events returns the coordinator's event stream for subscription.
func (c *Coordinator) Events() *EventStream { return c.eventStream }

// Commands returns the control output channel. The host application must
// drain it; commands are dropped, with a warning, rather than ever
// blocking a cycle.
func (c *Coordinator) Commands() <-chan Command { return c.commands }

// AddTelemetry feeds one surveillance report to the coordinator. It never
// blocks; under backpressure the report is dropped and the freshest data
// wins on the next cycle.
func (c *Coordinator) AddTelemetry(t Telemetry) {
	select {
	case c.telemetry <- t:
	default:
		if n := c.droppedTelemetry.Add(1); n%100 == 1 {
			c.lg.Warnf("dropped %d telemetry reports; coordinator backlogged", n)
		}
	}
}

// SetWind updates the surface wind used for runway assignment.
func (c *Coordinator) SetWind(w airport.WindVector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wind = w
}

func (c *Coordinator) SetPaused(p bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = p
}

// OnConflictDetected registers a callback invoked for every conflict found
// by a fast cycle. Callbacks run on the coordinator goroutine and must not
// block.
func (c *Coordinator) OnConflictDetected(cb func(conflict.Record)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conflictCallbacks = append(c.conflictCallbacks, cb)
}

// Run drives the two update cadences until the context is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	fast := time.NewTicker(c.config.FastCycle)
	defer fast.Stop()
	slow := time.NewTicker(c.config.SlowCycle)
	defer slow.Stop()

	c.lg.Info("coordinator running", "airport", c.ap.Name,
		"fast_cycle", c.config.FastCycle, "slow_cycle", c.config.SlowCycle)

	for {
		select {
		case <-ctx.Done():
			c.eventStream.Destroy()
			return ctx.Err()
		case <-fast.C:
			c.FastCycle(time.Now())
		case <-slow.C:
			c.SlowCycle(time.Now())
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// fast cycle

// FastCycle ingests pending telemetry, predicts conflicts over the
// configured horizon, and applies avoidance maneuvers. It is driven by Run
// but exported so hosts with their own scheduling can call it directly.
func (c *Coordinator) FastCycle(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		if d := time.Since(start); d > c.config.FastCycle {
			c.lg.Warn("unexpectedly long fast cycle", "duration", d)
		}
	}()

	c.ingestTelemetry(now)
	c.retireStale(now)

	if c.paused || len(c.aircraft) < 2 {
		return
	}

	records := c.predictAll()
	if len(records) == 0 {
		return
	}

	for _, rec := range records {
		c.eventStream.Post(Event{Type: ConflictDetectedEvent, Callsign: rec.A,
			OtherCallsign: rec.B, Conflict: &rec})
		for _, cb := range c.conflictCallbacks {
			cb(rec)
		}
	}

	maneuvers, err := c.resolver.Resolve(records, c.environment())
	if err != nil {
		// Escalated conflicts are surfaced but the holds still apply.
		c.lg.Errorf("conflict resolution: %v", err)
	}
	for _, m := range maneuvers {
		c.applyManeuver(m)
	}
}

// ingestTelemetry drains the telemetry channel, updating tracked aircraft
// and creating records for new arrivals.
func (c *Coordinator) ingestTelemetry(now time.Time) {
	for {
		select {
		case t := <-c.telemetry:
			// The class comes from the host unvalidated and indexes the
			// footprint table; a bad value is assumed heavy so the aircraft
			// is still tracked, just with the most conservative footprint.
			if t.Class < airport.ClassSmall || t.Class > airport.ClassHeavy {
				c.lg.Warnf("%s: invalid size class %d in telemetry; assuming heavy",
					t.Callsign, int(t.Class))
				t.Class = airport.ClassHeavy
			}
			ac, ok := c.aircraft[t.Callsign]
			if !ok {
				ac = &Aircraft{Callsign: t.Callsign, Class: t.Class, Goal: airport.NoNode}
				c.aircraft[t.Callsign] = ac
				c.lg.Infof("%s: now tracking (%s)", t.Callsign, t.Class)
				c.eventStream.Post(Event{Type: AircraftAddedEvent, Callsign: t.Callsign})
			}
			if t.Time.Before(ac.LastUpdate) {
				continue // out of order; keep the fresher state
			}
			ac.P, ac.Heading, ac.Speed = t.P, t.Heading, t.Speed
			ac.LastUpdate = t.Time
		default:
			return
		}
	}
}

// retireStale drops aircraft whose telemetry has timed out; they are
// treated as having left the managed area, which is expected, not an
// error.
func (c *Coordinator) retireStale(now time.Time) {
	for cs, ac := range c.aircraft {
		if !ac.LastUpdate.IsZero() && now.Sub(ac.LastUpdate) > c.config.StaleTimeout {
			c.lg.Infof("%s: dropping; telemetry stale for %s", cs, now.Sub(ac.LastUpdate))
			c.eventStream.Post(Event{Type: AircraftDroppedEvent, Callsign: cs})
			delete(c.aircraft, cs)
		}
	}
}

// predictAll runs the pairwise conflict predictions, fanned out across
// CPUs. The tracks are immutable snapshots so the workers share them
// freely; results are merged and then ordered deterministically.
func (c *Coordinator) predictAll() []conflict.Record {
	callsigns := util.SortedMapKeys(c.aircraft)
	tracks := util.MapSlice(callsigns, func(cs string) conflict.Track {
		return c.aircraft[cs].Track()
	})

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())

	var rmu sync.Mutex
	var records []conflict.Record
	for i := range tracks {
		i := i
		eg.Go(func() error {
			var local []conflict.Record
			for j := i + 1; j < len(tracks); j++ {
				if rec, ok := c.predictor.Predict(tracks[i], tracks[j]); ok {
					local = append(local, rec)
				}
			}
			rmu.Lock()
			records = append(records, local...)
			rmu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	slices.SortFunc(records, func(a, b conflict.Record) int {
		if cmp := strings.Compare(a.A, b.A); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.B, b.B)
	})
	return records
}

// environment assembles the read-only context for a resolution pass.
func (c *Coordinator) environment() conflict.Environment {
	env := conflict.Environment{
		Tracks:  make(map[string]conflict.Track, len(c.aircraft)),
		Rank:    make(map[string]int, len(c.aircraft)),
		Plans:   make(map[string]conflict.Plan),
		Airport: c.ap,
		Finder:  c.finder,
	}
	for cs, ac := range c.aircraft {
		env.Tracks[cs] = ac.Track()
		env.Rank[cs] = ac.Rank()
		if ac.Route != nil {
			env.Plans[cs] = conflict.Plan{
				Start:       ac.NearestNode(c.ap),
				Goal:        ac.Goal,
				Constraints: route.Constraints{Class: ac.Class},
			}
		}
	}
	return env
}

func (c *Coordinator) applyManeuver(m conflict.Maneuver) {
	ac, ok := c.aircraft[m.Aircraft]
	if !ok {
		return
	}

	switch m.Kind {
	case conflict.ManeuverHold:
		zero := float32(0)
		ac.TargetSpeed = &zero
		c.emit(Command{Kind: CommandHoldPosition, Callsign: ac.Callsign})
		if m.Escalated {
			c.eventStream.Post(Event{Type: ConflictEscalatedEvent, Callsign: ac.Callsign,
				WrittenText: "conflict not resolvable; holding"})
		}

	case conflict.ManeuverSpeed:
		ts := m.TargetSpeed
		ac.TargetSpeed = &ts
		c.emit(Command{Kind: CommandAdjustSpeed, Callsign: ac.Callsign, Speed: ts})

	case conflict.ManeuverReroute:
		ac.Route = m.Route
		c.emit(Command{Kind: CommandTaxiRoute, Callsign: ac.Callsign, Route: m.Route.Nodes})
	}

	c.eventStream.Post(Event{Type: ManeuverIssuedEvent, Callsign: ac.Callsign,
		WrittenText: m.Kind.String()})
}

// emit hands a command to the host, never blocking: output is rate
// limited and dropped with a warning if the host isn't consuming.
func (c *Coordinator) emit(cmd Command) {
	cmd.Text = commandText(c.ap, cmd)

	if c.limiter.Allow() {
		select {
		case c.commands <- cmd:
			return
		default:
		}
	}
	if n := c.droppedCommands.Add(1); n%10 == 1 {
		c.lg.Warnf("dropped %d commands; host not consuming", n)
	}
}

///////////////////////////////////////////////////////////////////////////
// slow cycle

// SlowCycle advances clearances, sequences competing requests, and
// assigns runways.
func (c *Coordinator) SlowCycle(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return
	}

	c.assignRunways()
	c.advanceClearances(now)
	c.retireParked()
}

// assignRunways gives every aircraft with a pending takeoff or landing
// clearance and no runway the current best runway.
func (c *Coordinator) assignRunways() {
	load := make(TrafficLoad)
	for _, ac := range c.aircraft {
		if ac.Runway != "" {
			if s, ok := ac.Clearance.State(); ok && !s.Terminal() {
				load[ac.Runway]++
			}
		}
	}

	for _, cs := range util.SortedMapKeys(c.aircraft) {
		ac := c.aircraft[cs]
		cl := ac.Clearance.Current()
		if cl == nil || cl.State.Terminal() || ac.Runway != "" {
			continue
		}
		if cl.Type != clearance.Takeoff && cl.Type != clearance.Landing {
			continue
		}

		id, caution := SelectRunway(c.ap, c.wind, load, c.config)
		if id == "" {
			continue
		}
		ac.Runway = id
		cl.Runway = id
		load[id]++
		c.lg.Infof("%s: assigned runway %s (wind %s)", cs, id, c.wind)
		c.eventStream.Post(Event{Type: RunwayAssignedEvent, Callsign: cs, Runway: id})
		if caution {
			c.eventStream.Post(Event{Type: CautionEvent, Callsign: cs, Runway: id,
				WrittenText: "all runways exceed crosswind limits"})
		}
	}
}

// advanceClearances grants pending requests in sequencer order, activates
// granted clearances whose guards pass, and completes active ones.
func (c *Coordinator) advanceClearances(now time.Time) {
	// Group pending requests by the resource they compete for.
	pending := make(map[string][]Request)
	for cs, ac := range c.aircraft {
		cl := ac.Clearance.Current()
		if cl == nil || cl.State != clearance.Requested {
			continue
		}
		resource := ac.Runway
		if resource == "" {
			resource = "taxi"
		}
		pending[resource] = append(pending[resource], Request{
			Callsign:    cs,
			RequestedAt: cl.RequestedAt.UnixNano(),
			Emergency:   ac.Emergency,
			Blocking:    c.blocksOthers(ac),
		})
	}

	for _, resource := range util.SortedMapKeys(pending) {
		order := Order(pending[resource])

		// Only the head of each resource's queue is granted this cycle;
		// the rest wait their turn.
		ac := c.aircraft[order[0]]
		if err := ac.Clearance.Transition(clearance.Granted, c.guardContext(ac)); err != nil {
			c.lg.Debugf("%s: not granting: %v", ac.Callsign, err)
			continue
		}
		cl := ac.Clearance.Current()
		cmd := Command{Kind: CommandClearance, Callsign: ac.Callsign,
			Clearance: cl.Type, State: clearance.Granted, Runway: ac.Runway}
		if ac.Route != nil {
			cmd.Route = ac.Route.Nodes
		}
		c.emit(cmd)
		c.eventStream.Post(Event{Type: ClearanceEvent, Callsign: ac.Callsign,
			Runway: ac.Runway, WrittenText: cmd.Text})
	}

	for _, cs := range util.SortedMapKeys(c.aircraft) {
		ac := c.aircraft[cs]
		s, ok := ac.Clearance.State()
		if !ok {
			continue
		}

		switch s {
		case clearance.Granted:
			// Activate as soon as the guards allow; for a takeoff that
			// means the runway went clear.
			if err := ac.Clearance.Transition(clearance.Active, c.guardContext(ac)); err == nil {
				c.eventStream.Post(Event{Type: ClearanceEvent, Callsign: cs,
					WrittenText: ac.Clearance.Current().Type.String() + " active"})
			}

		case clearance.Active:
			if c.clearanceComplete(ac) {
				if err := ac.Clearance.Transition(clearance.Completed, c.guardContext(ac)); err == nil {
					c.lg.Infof("%s: %s complete", cs, ac.Clearance.Current().Type)
					c.eventStream.Post(Event{Type: ClearanceEvent, Callsign: cs,
						WrittenText: ac.Clearance.Current().Type.String() + " complete"})
					ac.Route = nil
					ac.Runway = ""
				}
			}
		}
	}
}

// guardContext evaluates the transition guards for an aircraft's current
// clearance.
func (c *Coordinator) guardContext(ac *Aircraft) clearance.Context {
	ctx := clearance.Context{RunwayClear: true}

	cl := ac.Clearance.Current()
	if cl == nil || cl.Runway == "" {
		return ctx
	}
	r, ok := c.ap.RunwayByID(cl.Runway)
	if !ok {
		return ctx
	}

	ctx.RunwayClear = !c.runwayOccupied(r, ac.Callsign)
	if ac.Route != nil && len(ac.Route.Nodes) > 0 {
		last := ac.Route.Nodes[len(ac.Route.Nodes)-1]
		ctx.RouteEndsAtRunway = last == r.Thresholds[0] || last == r.Thresholds[1]
	}
	return ctx
}

// runwayOccupied reports whether any tracked aircraft other than except is
// on the runway's paved area.
func (c *Coordinator) runwayOccupied(r airport.Runway, except string) bool {
	t0, ok0 := c.ap.Node(r.Thresholds[0])
	t1, ok1 := c.ap.Node(r.Thresholds[1])
	if !ok0 || !ok1 {
		return false
	}

	for cs, ac := range c.aircraft {
		if cs == except {
			continue
		}
		if math.PointSegmentDistance(ac.P, t0.P.P, t1.P.P) < r.Width {
			return true
		}
	}
	return false
}

// blocksOthers reports whether a stopped aircraft is sitting on another
// aircraft's route.
func (c *Coordinator) blocksOthers(ac *Aircraft) bool {
	if ac.Speed > 1 {
		return false
	}
	near := ac.NearestNode(c.ap)
	for cs, other := range c.aircraft {
		if cs == ac.Callsign || other.Route == nil {
			continue
		}
		if slices.Contains(other.Route.Nodes, near) {
			return true
		}
	}
	return false
}

func (c *Coordinator) clearanceComplete(ac *Aircraft) bool {
	cl := ac.Clearance.Current()
	switch cl.Type {
	case clearance.Takeoff:
		return ac.Speed >= takeoffCompleteSpeed
	case clearance.Landing:
		return ac.Speed > 0 && ac.Speed <= landingCompleteSpeed
	case clearance.Pushback, clearance.Taxi:
		if ac.Goal == airport.NoNode {
			return false
		}
		if n, ok := ac.AtNode(c.ap); ok {
			return n == ac.Goal
		}
		return false
	default:
		return false
	}
}

// retireParked drops aircraft that have finished their clearance at a
// parking spot; they are no longer the coordinator's concern.
func (c *Coordinator) retireParked() {
	for cs, ac := range c.aircraft {
		s, ok := ac.Clearance.State()
		if !ok || !s.Terminal() {
			continue
		}
		if n, ok := ac.AtNode(c.ap); ok && c.ap.Nodes[n].Kind == airport.ParkingNode {
			c.lg.Infof("%s: parked; dropping", cs)
			c.eventStream.Post(Event{Type: AircraftDroppedEvent, Callsign: cs})
			delete(c.aircraft, cs)
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// command API

// AssignRoute computes and assigns a route from the aircraft's present
// position to the named destination node.
func (c *Coordinator) AssignRoute(callsign, destination string) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.aircraft[callsign]
	if !ok {
		return uuid.UUID{}, ErrUnknownAircraft
	}
	dest, ok := c.ap.NodeByName(destination)
	if !ok {
		return uuid.UUID{}, ErrUnknownDestination
	}

	start := ac.NearestNode(c.ap)
	r, err := c.finder.FindRoute(start, dest.ID, route.Constraints{Class: ac.Class})
	if err != nil {
		return uuid.UUID{}, err
	}

	ac.Route = &r
	ac.Goal = dest.ID
	c.lg.Infof("%s: assigned route to %s, %d nodes, %.0fm", callsign, destination,
		len(r.Nodes), r.Cost)
	c.eventStream.Post(Event{Type: RouteAssignedEvent, Callsign: callsign,
		WrittenText: destination})
	return r.ID, nil
}

// RequestClearance files a clearance request for the aircraft; the slow
// cycle grants requests in sequence order.
func (c *Coordinator) RequestClearance(callsign string, t clearance.Type) (clearance.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.aircraft[callsign]
	if !ok {
		return 0, ErrUnknownAircraft
	}
	// A takeoff clearance makes no sense until the aircraft has a taxi
	// route to a runway; its activation guard needs one anyway.
	if t == clearance.Takeoff && ac.Route == nil {
		return 0, ErrNoRoute
	}

	s, err := ac.Clearance.Request(t, ac.Runway, time.Now())
	if err != nil {
		return s, err
	}
	c.lg.Infof("%s: requested %s clearance", callsign, t)
	return s, nil
}

// QueryClearanceState returns the state of the aircraft's current
// clearance.
func (c *Coordinator) QueryClearanceState(callsign string) (clearance.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.aircraft[callsign]
	if !ok {
		return 0, ErrUnknownAircraft
	}
	s, ok := ac.Clearance.State()
	if !ok {
		return 0, ErrNoClearance
	}
	return s, nil
}

// AbortClearance cancels the aircraft's granted or active clearance,
// clearing its route so nothing stale is acted on by the next cycle.
func (c *Coordinator) AbortClearance(callsign string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.aircraft[callsign]
	if !ok {
		return ErrUnknownAircraft
	}

	if err := ac.Clearance.Transition(clearance.Aborted, clearance.Context{}); err != nil {
		return err
	}

	cl := ac.Clearance.Current()
	ac.Route = nil
	ac.TargetSpeed = nil
	c.emit(Command{Kind: CommandClearance, Callsign: callsign, Clearance: cl.Type,
		State: clearance.Aborted, Runway: ac.Runway})
	c.eventStream.Post(Event{Type: ClearanceEvent, Callsign: callsign,
		WrittenText: cl.Type.String() + " aborted"})
	return nil
}

// SetEmergency marks or clears an emergency for the aircraft; emergencies
// go to the head of every sequencing queue.
func (c *Coordinator) SetEmergency(callsign string, emergency bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.aircraft[callsign]
	if !ok {
		return ErrUnknownAircraft
	}
	ac.Emergency = emergency
	return nil
}

///////////////////////////////////////////////////////////////////////////
// introspection

// Snapshot is a deep copy of the coordinator's state, safe to inspect
// while the cycles keep running.
type Snapshot struct {
	Airport  string
	Time     time.Time
	Wind     airport.WindVector
	Aircraft map[string]Aircraft
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Airport:  c.ap.Name,
		Time:     time.Now(),
		Wind:     c.wind,
		Aircraft: make(map[string]Aircraft, len(c.aircraft)),
	}
	for cs, ac := range c.aircraft {
		snap.Aircraft[cs] = deep.MustCopy(*ac)
	}
	return snap
}

// DumpState writes a readable dump of the current state for debugging.
func (c *Coordinator) DumpState(w io.Writer) {
	godump.Fdump(w, c.Snapshot())
}
