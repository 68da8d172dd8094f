// Package live pushes the newest sample of every vehicle to connected viewers.
package live

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

// EventUpdateData is the event name the map client listens for
const EventUpdateData = "updateData"

// DefaultPollInterval matches the refresh rate of the map client
const DefaultPollInterval = 5 * time.Second

// LatestStore returns the most recently stored sample of each vehicle
type LatestStore interface {
	LatestPerVehicle(ctx context.Context) ([]models.Sample, error)
}

// Broadcaster delivers an event to every connected viewer of one transport
type Broadcaster interface {
	Broadcast(event string, samples []models.Sample) error
	ViewerCount() int
}

// Viewer is a single connection that can be sent a snapshot
type Viewer interface {
	ID() string
	Send(event string, samples []models.Sample) error
}

// Coordinator owns the last broadcast sample per vehicle. The poll loop, the
// ingestion path and connection handlers all go through it.
type Coordinator struct {
	store    LatestStore
	clock    timeutil.Clock
	interval time.Duration

	// emitMu is held from change detection through broadcast so batches
	// reach viewers in the order they were decided. Taken before mu.
	emitMu sync.Mutex
	mu     sync.Mutex
	last   map[int64]models.Sample
	seeded bool

	bmu          sync.RWMutex
	broadcasters []Broadcaster
}

// NewCoordinator creates a coordinator polling store every interval
func NewCoordinator(store LatestStore, clock timeutil.Clock, interval time.Duration) *Coordinator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Coordinator{
		store:    store,
		clock:    clock,
		interval: interval,
		last:     make(map[int64]models.Sample),
	}
}

// AddBroadcaster registers a transport
func (c *Coordinator) AddBroadcaster(b Broadcaster) {
	c.bmu.Lock()
	defer c.bmu.Unlock()
	c.broadcasters = append(c.broadcasters, b)
}

// Run polls until ctx is cancelled. Poll failures are logged and the loop
// carries on with the next tick.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	log.Printf("[LiveCoordinator] Polling every %s", c.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if _, err := c.Poll(ctx); err != nil {
				log.Printf("[LiveCoordinator] Poll failed: %v", err)
			}
		}
	}
}

// Poll reads the latest sample of every vehicle and broadcasts, as one
// batch, those that are newer than what was last sent. It returns the batch.
func (c *Coordinator) Poll(ctx context.Context) ([]models.Sample, error) {
	latest, err := c.store.LatestPerVehicle(ctx)
	if err != nil {
		return nil, err
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	batch := make([]models.Sample, 0)
	for _, s := range latest {
		if c.advance(s) {
			batch = append(batch, s)
		}
	}
	c.seeded = true
	c.mu.Unlock()

	if len(batch) > 0 {
		c.emit(batch)
	}
	return batch, nil
}

// Publish is the direct path from ingestion. The sample is broadcast right
// away unless it is not newer than what viewers already have.
func (c *Coordinator) Publish(s models.Sample) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	changed := c.advance(s)
	c.mu.Unlock()

	if changed {
		c.emit([]models.Sample{s})
	}
}

// advance records s as the vehicle's latest when its id is newer. Caller holds mu.
func (c *Coordinator) advance(s models.Sample) bool {
	prev, ok := c.last[s.VehicleID]
	if ok && s.ID <= prev.ID {
		return false
	}
	c.last[s.VehicleID] = s
	return true
}

// Snapshot returns the latest known sample of every vehicle ordered by
// vehicle id. Before the first poll the state is loaded from the store.
func (c *Coordinator) Snapshot(ctx context.Context) ([]models.Sample, error) {
	c.mu.Lock()
	seeded := c.seeded
	c.mu.Unlock()

	if !seeded {
		latest, err := c.store.LatestPerVehicle(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		for _, s := range latest {
			c.advance(s)
		}
		c.seeded = true
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Sample, 0, len(c.last))
	for _, s := range c.last {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

// OnConnect sends the current state to a viewer that just connected
func (c *Coordinator) OnConnect(ctx context.Context, v Viewer) error {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return nil
	}
	return v.Send(EventUpdateData, snapshot)
}

// ViewerCount sums viewers across transports
func (c *Coordinator) ViewerCount() int {
	c.bmu.RLock()
	defer c.bmu.RUnlock()

	n := 0
	for _, b := range c.broadcasters {
		n += b.ViewerCount()
	}
	return n
}

func (c *Coordinator) emit(batch []models.Sample) {
	c.bmu.RLock()
	defer c.bmu.RUnlock()

	for _, b := range c.broadcasters {
		if err := b.Broadcast(EventUpdateData, batch); err != nil {
			log.Printf("[LiveCoordinator] Broadcast failed: %v", err)
		}
	}
}
