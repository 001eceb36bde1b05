package bridge

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	remoaircon "github.com/eivy/remo-aircon"
	"github.com/eivy/remo-aircon/mqtt"
)

// fakeCloud behaves like the Remo API for a set of aircons: commands change
// the settings that the next fetch returns.
type fakeCloud struct {
	mu          sync.Mutex
	descriptors []remoaircon.Descriptor
	settings    map[string]remoaircon.RawSettings
	sent        []remoaircon.Command
	fetchErr    error
	sendErr     error
	bulkFetches int
}

func newFakeCloud() *fakeCloud {
	caps := remoaircon.CapabilityTable{
		"cool": {Temperatures: []string{"18", "30"}, FanLevels: []string{"auto", "1"}},
		"warm": {Temperatures: []string{"16", "30"}, FanLevels: []string{"auto"}},
		"blow": {FanLevels: []string{"auto"}},
	}
	f := &fakeCloud{
		descriptors: []remoaircon.Descriptor{
			{ID: "ac-2", Nickname: "Bedroom", Capabilities: caps, Settings: remoaircon.RawSettings{Mode: "warm", Temp: "20", Button: "power-off"}},
			{ID: "ac-1", Nickname: "Living", Capabilities: caps, Settings: remoaircon.RawSettings{Mode: "cool", Temp: "25", Vol: "auto"}},
		},
		settings: make(map[string]remoaircon.RawSettings),
	}
	for _, d := range f.descriptors {
		f.settings[d.ID] = d.Settings
	}
	return f
}

func (f *fakeCloud) Discover(ctx context.Context) ([]remoaircon.Descriptor, error) {
	return f.descriptors, nil
}

func (f *fakeCloud) FetchSettings(ctx context.Context, id string) (remoaircon.RawSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[id], f.fetchErr
}

func (f *fakeCloud) FetchAllSettings(ctx context.Context) (map[string]remoaircon.RawSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	all := make(map[string]remoaircon.RawSettings, len(f.settings))
	for id, s := range f.settings {
		all[id] = s
	}
	return all, nil
}

func (f *fakeCloud) SendCommand(ctx context.Context, id string, cmd remoaircon.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, cmd)
	s := f.settings[id]
	switch c := cmd.(type) {
	case remoaircon.TemperatureCommand:
		s.Temp = strconv.Itoa(c.Temperature)
	case remoaircon.ModeCommand:
		s.Mode, s.Button = c.OperationMode, ""
		if c.Temperature != nil {
			s.Temp = strconv.Itoa(*c.Temperature)
		}
	case remoaircon.PowerOffCommand:
		s.Button = remoaircon.RawPowerOff
	case remoaircon.FanCommand:
		s.Vol = c.AirVolume
	case remoaircon.SwingCommand:
		s.Dir = c.AirDirection
	}
	f.settings[id] = s
	return nil
}

func (f *fakeCloud) setSettings(id string, s remoaircon.RawSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[id] = s
}

func (f *fakeCloud) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.settings, id)
}

type recordingPublisher struct {
	states    []remoaircon.State
	discovery []remoaircon.State
}

func (p *recordingPublisher) PublishState(s remoaircon.State) error {
	p.states = append(p.states, s)
	return nil
}

func (p *recordingPublisher) PublishDiscovery(s remoaircon.State) error {
	p.discovery = append(p.discovery, s)
	return nil
}

type recordingRecorder struct {
	commands []string
	updated  int
}

func (r *recordingRecorder) RecordCommand(id, kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.commands = append(r.commands, id+"/"+kind+"/"+result)
}

func (r *recordingRecorder) MarkUpdated(t time.Time) { r.updated++ }

var defaults = remoaircon.DefaultTemperatures{Cool: 27, Heat: 21}

func newTestBridge(t *testing.T, opts ...Option) (*Bridge, *fakeCloud) {
	t.Helper()
	cloud := newFakeCloud()
	b := New(cloud, defaults, nil, opts...)
	require.NoError(t, b.Discover(context.Background()))
	return b, cloud
}

func TestDiscover(t *testing.T) {
	pub := &recordingPublisher{}
	b, _ := newTestBridge(t, WithPublisher(pub, true))

	states := b.States()
	require.Len(t, states, 2)
	assert.Equal(t, "ac-1", states[0].ID)
	assert.Equal(t, "Nature Remo Living", states[0].Name)
	assert.Equal(t, remoaircon.HvacModeCool, states[0].HvacMode)
	assert.Equal(t, remoaircon.HvacModeOff, states[1].HvacMode)
	assert.Equal(t, "warm", states[1].RawMode)

	assert.Len(t, pub.states, 2)
	assert.Len(t, pub.discovery, 2)
}

func TestGetUnknown(t *testing.T) {
	b, _ := newTestBridge(t)

	_, err := b.Get("nope")
	assert.ErrorIs(t, err, remoaircon.ErrApplianceNotFound)
	assert.ErrorIs(t, b.Apply(context.Background(), "nope", remoaircon.KindHvacMode, "cool"), remoaircon.ErrApplianceNotFound)
}

func TestApplyRefreshesState(t *testing.T) {
	pub := &recordingPublisher{}
	rec := &recordingRecorder{}
	b, cloud := newTestBridge(t, WithPublisher(pub, false), WithRecorder(rec))

	require.NoError(t, b.Apply(context.Background(), "ac-2", remoaircon.KindHvacMode, "cool"))

	s, err := b.Get("ac-2")
	require.NoError(t, err)
	assert.Equal(t, remoaircon.HvacModeCool, s.HvacMode)
	require.NotNil(t, s.TargetTemperature)
	assert.Equal(t, 27.0, *s.TargetTemperature)
	assert.Equal(t, 18, s.MinTemp)

	require.Len(t, cloud.sent, 1)
	assert.Equal(t, []string{"ac-2/mode/success"}, rec.commands)
	assert.Equal(t, "ac-2", pub.states[len(pub.states)-1].ID)
	assert.Empty(t, pub.discovery)
}

func TestApplyPowerOff(t *testing.T) {
	b, cloud := newTestBridge(t)

	require.NoError(t, b.Apply(context.Background(), "ac-1", remoaircon.KindHvacMode, "off"))

	s, err := b.Get("ac-1")
	require.NoError(t, err)
	assert.False(t, s.Power())
	assert.Equal(t, "cool", s.RawMode)
	assert.Equal(t, []remoaircon.Command{remoaircon.PowerOffCommand{}}, cloud.sent)
}

func TestApplyErrors(t *testing.T) {
	rec := &recordingRecorder{}
	b, cloud := newTestBridge(t, WithRecorder(rec))

	err := b.Apply(context.Background(), "ac-1", remoaircon.KindHvacMode, "turbo")
	assert.ErrorIs(t, err, remoaircon.ErrInvalidValue)

	boom := errors.New("boom")
	cloud.sendErr = boom
	err = b.Apply(context.Background(), "ac-1", remoaircon.KindFanMode, "1")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"ac-1/mode/error", "ac-1/fan_mode/error"}, rec.commands)
}

func TestApplySucceedsWhenRefreshFails(t *testing.T) {
	b, cloud := newTestBridge(t)
	cloud.fetchErr = errors.New("rate limited")

	require.NoError(t, b.Apply(context.Background(), "ac-1", remoaircon.KindTemperature, "22"))
	assert.Len(t, cloud.sent, 1)
}

func TestHandleCommand(t *testing.T) {
	b, cloud := newTestBridge(t)

	err := b.HandleCommand(context.Background(), mqtt.Command{ApplianceID: "ac-1", Kind: remoaircon.KindSwingMode, Value: "swing"})
	require.NoError(t, err)

	s, err := b.Get("ac-1")
	require.NoError(t, err)
	require.NotNil(t, s.SwingMode)
	assert.Equal(t, "swing", *s.SwingMode)
	assert.Equal(t, []remoaircon.Command{remoaircon.SwingCommand{AirDirection: "swing"}}, cloud.sent)
}

func TestPoll(t *testing.T) {
	pub := &recordingPublisher{}
	rec := &recordingRecorder{}
	b, cloud := newTestBridge(t, WithPublisher(pub, true), WithRecorder(rec))
	pub.states, pub.discovery = nil, nil

	cloud.setSettings("ac-2", remoaircon.RawSettings{Mode: "blow", Vol: "auto"})
	require.NoError(t, b.Poll(context.Background()))

	s, err := b.Get("ac-2")
	require.NoError(t, err)
	assert.Equal(t, remoaircon.HvacModeFanOnly, s.HvacMode)
	assert.Equal(t, remoaircon.DefaultMinTemp, s.MinTemp)

	assert.Len(t, pub.states, 2)
	// only ac-2 changed raw mode
	require.Len(t, pub.discovery, 1)
	assert.Equal(t, "ac-2", pub.discovery[0].ID)
	assert.Equal(t, 2, rec.updated)
	assert.Equal(t, 1, cloud.bulkFetches)
}

func TestPollMissingAircon(t *testing.T) {
	rec := &recordingRecorder{}
	b, cloud := newTestBridge(t, WithRecorder(rec))
	cloud.remove("ac-2")
	cloud.setSettings("ac-1", remoaircon.RawSettings{Mode: "dry"})

	err := b.Poll(context.Background())
	assert.ErrorIs(t, err, remoaircon.ErrApplianceNotFound)
	assert.ErrorContains(t, err, "ac-2")

	s, err := b.Get("ac-1")
	require.NoError(t, err)
	assert.Equal(t, remoaircon.HvacModeDry, s.HvacMode)
	assert.Equal(t, 2, rec.updated)
}

func TestPollWithoutAircons(t *testing.T) {
	rec := &recordingRecorder{}
	cloud := newFakeCloud()
	cloud.descriptors = nil
	b := New(cloud, defaults, nil, WithRecorder(rec))
	require.NoError(t, b.Discover(context.Background()))
	first := b.LastUpdate()
	require.False(t, first.IsZero())

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, b.Poll(context.Background()))
	assert.True(t, b.LastUpdate().After(first))
	assert.Equal(t, 2, rec.updated)
	assert.Empty(t, b.States())
}

func TestPollFetchError(t *testing.T) {
	rec := &recordingRecorder{}
	b, cloud := newTestBridge(t, WithRecorder(rec))
	boom := errors.New("boom")
	cloud.fetchErr = boom

	err := b.Poll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.updated)
	assert.Equal(t, 1, cloud.bulkFetches)
}

func TestRunStopsOnCancel(t *testing.T) {
	b, _ := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, 10*time.Millisecond) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
