// Package bridge keeps the aircon models in sync with the Remo cloud and
// routes commands from MQTT and HTTP to them.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	remoaircon "github.com/eivy/remo-aircon"
	"github.com/eivy/remo-aircon/mqtt"
)

// Client is the remote API plus appliance discovery and a bulk settings
// fetch for polling.
type Client interface {
	remoaircon.API
	Discover(ctx context.Context) ([]remoaircon.Descriptor, error)
	FetchAllSettings(ctx context.Context) (map[string]remoaircon.RawSettings, error)
}

// Publisher pushes states to MQTT.
type Publisher interface {
	PublishState(state remoaircon.State) error
	PublishDiscovery(state remoaircon.State) error
}

// Recorder receives command outcomes and poll times, typically a
// metrics.Collector.
type Recorder interface {
	RecordCommand(id, kind string, err error)
	MarkUpdated(t time.Time)
}

// Bridge owns every Aircon. All access goes through its mutex since an Aircon
// is not safe for concurrent use.
type Bridge struct {
	mu       sync.Mutex
	client   Client
	defaults remoaircon.DefaultTemperatures
	aircons  map[string]*remoaircon.Aircon
	ids      []string
	// discovered holds the raw mode each discovery config was built for.
	discovered map[string]string
	updatedAt  time.Time

	publisher Publisher
	discovery bool
	recorder  Recorder
	logger    *zap.Logger
}

var _ mqtt.CommandHandler = (*Bridge)(nil)

type Option func(*Bridge)

// WithPublisher publishes every state to p, and Home Assistant discovery
// configs as well when discovery is set.
func WithPublisher(p Publisher, discovery bool) Option {
	return func(b *Bridge) {
		b.publisher = p
		b.discovery = discovery
	}
}

func WithRecorder(r Recorder) Option {
	return func(b *Bridge) {
		b.recorder = r
	}
}

func New(client Client, defaults remoaircon.DefaultTemperatures, logger *zap.Logger, opts ...Option) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		client:     client,
		defaults:   defaults,
		aircons:    make(map[string]*remoaircon.Aircon),
		discovered: make(map[string]string),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discover replaces the models with the aircons the API reports and
// publishes their states.
func (b *Bridge) Discover(ctx context.Context) error {
	ds, err := b.client.Discover(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.aircons = make(map[string]*remoaircon.Aircon, len(ds))
	b.discovered = make(map[string]string, len(ds))
	b.ids = b.ids[:0]
	for _, d := range ds {
		a, err := remoaircon.NewAircon(d, b.defaults, b.client, b.logger)
		if err != nil {
			b.logger.Warn("skipping appliance", zap.String("appliance", d.ID), zap.Error(err))
			continue
		}
		b.aircons[d.ID] = a
		b.ids = append(b.ids, d.ID)
	}
	sort.Strings(b.ids)

	for _, id := range b.ids {
		b.publish(b.aircons[id])
	}
	b.markUpdated()
	return nil
}

// Poll refreshes every aircon from a single settings fetch. An aircon
// missing from the fetch is an error; the other aircons are still updated.
func (b *Bridge) Poll(ctx context.Context) error {
	all, err := b.client.FetchAllSettings(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	updated := 0
	for _, id := range b.ids {
		s, ok := all[id]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", remoaircon.ErrApplianceNotFound, id))
			continue
		}
		a := b.aircons[id]
		a.Ingest(s)
		updated++
		b.publish(a)
	}
	// a clean poll counts even with no aircons to refresh
	if updated > 0 || len(errs) == 0 {
		b.markUpdated()
	}
	return errors.Join(errs...)
}

// Run polls every interval until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Poll(ctx); err != nil {
				b.logger.Error("poll failed", zap.Error(err))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleCommand applies a command received over MQTT.
func (b *Bridge) HandleCommand(ctx context.Context, cmd mqtt.Command) error {
	return b.Apply(ctx, cmd.ApplianceID, cmd.Kind, cmd.Value)
}

// Apply sends value for kind to the aircon id and, on success, refreshes it
// so the returned state reflects what the device accepted.
func (b *Bridge) Apply(ctx context.Context, id string, kind remoaircon.CommandKind, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.aircons[id]
	if !ok {
		return fmt.Errorf("%w: %s", remoaircon.ErrApplianceNotFound, id)
	}

	err := a.Apply(ctx, kind, value)
	if b.recorder != nil {
		b.recorder.RecordCommand(id, kind.String(), err)
	}
	if err != nil {
		return err
	}

	if err := a.Update(ctx); err != nil {
		// the command went through; the next poll catches up
		b.logger.Warn("refresh after command failed", zap.String("appliance", id), zap.Error(err))
		return nil
	}
	b.publish(a)
	return nil
}

// States returns a snapshot of every aircon, ordered by ID.
func (b *Bridge) States() []remoaircon.State {
	b.mu.Lock()
	defer b.mu.Unlock()

	states := make([]remoaircon.State, 0, len(b.ids))
	for _, id := range b.ids {
		states = append(states, b.state(b.aircons[id]))
	}
	return states
}

// Get returns the state of one aircon.
func (b *Bridge) Get(id string) (remoaircon.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.aircons[id]
	if !ok {
		return remoaircon.State{}, fmt.Errorf("%w: %s", remoaircon.ErrApplianceNotFound, id)
	}
	return b.state(a), nil
}

// state logs a capability lookup error and keeps the fallback snapshot.
func (b *Bridge) state(a *remoaircon.Aircon) remoaircon.State {
	s, err := a.State()
	if err != nil {
		b.logger.Warn("incomplete state", zap.String("appliance", a.ID()), zap.Error(err))
	}
	return s
}

func (b *Bridge) publish(a *remoaircon.Aircon) {
	if b.publisher == nil {
		return
	}
	s := b.state(a)
	if b.discovery {
		// fan and swing lists depend on the raw mode
		if raw, ok := b.discovered[s.ID]; !ok || raw != s.RawMode {
			if err := b.publisher.PublishDiscovery(s); err != nil {
				b.logger.Error("publish discovery failed", zap.String("appliance", s.ID), zap.Error(err))
			} else {
				b.discovered[s.ID] = s.RawMode
			}
		}
	}
	if err := b.publisher.PublishState(s); err != nil {
		b.logger.Error("publish state failed", zap.String("appliance", s.ID), zap.Error(err))
	}
}

func (b *Bridge) markUpdated() {
	b.updatedAt = time.Now()
	if b.recorder != nil {
		b.recorder.MarkUpdated(b.updatedAt)
	}
}

// LastUpdate is the time of the last discovery, or of the last poll that
// refreshed an aircon or had nothing to refresh.
func (b *Bridge) LastUpdate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updatedAt
}
