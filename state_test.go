package remoaircon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	a := newTestAircon(t, RawSettings{Mode: "warm", Temp: "21", Button: "power-off", Vol: "2", Dir: ""}, nil)

	s, err := a.State()
	require.NoError(t, err)
	assert.Equal(t, "ac-1", s.ID)
	assert.Equal(t, HvacModeOff, s.HvacMode)
	assert.False(t, s.Power())
	assert.Equal(t, HvacModes(), s.HvacModes)
	assert.Equal(t, 21.0, *s.TargetTemperature)
	assert.Equal(t, 1, s.TargetTemperatureStep)
	assert.Equal(t, 16, s.MinTemp)
	assert.Equal(t, 30, s.MaxTemp)
	assert.Equal(t, str("2"), s.FanMode)
	assert.Nil(t, s.SwingMode)
	assert.Equal(t, []string{"auto", "1", "2"}, s.FanModes)
	assert.Equal(t, "warm", s.RawMode)
}

func TestStateUnknownModeFallsBack(t *testing.T) {
	a := newTestAircon(t, RawSettings{Mode: "dry"}, nil)

	s, err := a.State()
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, HvacModeDry, s.HvacMode)
	assert.Equal(t, DefaultMinTemp, s.MinTemp)
	assert.Equal(t, DefaultMaxTemp, s.MaxTemp)
	assert.Empty(t, s.FanModes)
}

func TestApply(t *testing.T) {
	tests := []struct {
		kind  CommandKind
		value string
		want  Command
	}{
		{KindTemperature, "24", TemperatureCommand{Temperature: 24}},
		{KindTemperature, " 22.9 ", TemperatureCommand{Temperature: 22}},
		{KindHvacMode, "off", PowerOffCommand{}},
		{KindHvacMode, "dry", ModeCommand{OperationMode: "dry"}},
		{KindFanMode, "auto", FanCommand{AirVolume: "auto"}},
		{KindSwingMode, "1", SwingCommand{AirDirection: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.value, func(t *testing.T) {
			api := &fakeAPI{}
			a := newTestAircon(t, RawSettings{Mode: "cool"}, api)
			require.NoError(t, a.Apply(context.Background(), tt.kind, tt.value))
			require.Len(t, api.sent, 1)
			assert.Equal(t, tt.want, api.sent[0])
		})
	}
}

func TestApplyInvalid(t *testing.T) {
	api := &fakeAPI{}
	a := newTestAircon(t, RawSettings{Mode: "cool"}, api)

	assert.ErrorIs(t, a.Apply(context.Background(), KindTemperature, "warm"), ErrInvalidValue)
	assert.ErrorIs(t, a.Apply(context.Background(), KindHvacMode, "warm"), ErrUnknownHvacMode)
	assert.ErrorIs(t, a.Apply(context.Background(), CommandKind(42), "x"), ErrInvalidValue)
	require.NoError(t, a.Apply(context.Background(), KindTemperature, ""))
	assert.Empty(t, api.sent)
}

func TestApplyNonFiniteTemperature(t *testing.T) {
	for _, value := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e300", "-1e300", "3000000000"} {
		t.Run(value, func(t *testing.T) {
			api := &fakeAPI{}
			a := newTestAircon(t, RawSettings{Mode: "cool"}, api)
			assert.ErrorIs(t, a.Apply(context.Background(), KindTemperature, value), ErrInvalidValue)
			assert.Empty(t, api.sent)
		})
	}
}

func TestParseTemperature(t *testing.T) {
	v, ok := ParseTemperature(" 26.5 ")
	assert.True(t, ok)
	assert.Equal(t, 26.5, v)

	for _, s := range []string{"", "--", "NaN", "Inf", "-Inf"} {
		_, ok := ParseTemperature(s)
		assert.False(t, ok, s)
	}
}
