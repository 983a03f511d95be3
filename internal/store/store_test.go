package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovpngen/internal/domain"
	"ovpngen/internal/eventbus"
)

type generateCall struct {
	entries domain.Entries
	opts    map[string]domain.Value
}

func recordingGenerator(calls *[]generateCall, err error) Generator {
	return GeneratorFunc(func(_ context.Context, entries domain.Entries, opts map[string]domain.Value) error {
		*calls = append(*calls, generateCall{entries: entries, opts: opts})
		return err
	})
}

func TestSetNotify(t *testing.T) {
	bus := eventbus.New()
	s := New(bus)
	peer := eventbus.NewRecorder("peer")
	bus.Register(s)
	bus.Register(peer)

	s.Set("ca.cn", "MyCA", true)

	v, ok := s.Get("ca.cn")
	require.True(t, ok)
	assert.Equal(t, "MyCA", v)
	require.Equal(t, 1, peer.Count())
	ev := peer.Events()[0]
	assert.Equal(t, DefaultIdentity, ev.Origin)
	key, val, err := ev.Data()
	require.NoError(t, err)
	assert.Equal(t, "ca.cn", key)
	assert.Equal(t, "MyCA", val)
}

func TestSetWithoutNotify(t *testing.T) {
	bus := eventbus.New()
	s := New(bus)
	peer := eventbus.NewRecorder("peer")
	bus.Register(s)
	bus.Register(peer)

	s.Set("ca.cn", "Quiet", false)

	assert.Equal(t, 0, peer.Count())
	v, _ := s.Get("ca.cn")
	assert.Equal(t, "Quiet", v)
}

func TestReceiveDataMirrorsWithoutPublishing(t *testing.T) {
	bus := eventbus.New()
	s := New(bus)
	peer := eventbus.NewRecorder("peer")
	bus.Register(s)
	bus.Register(peer)

	bus.Publish(domain.NewData("peer", "client.count", int64(3)))

	v, ok := s.Get("client.count")
	require.True(t, ok)
	assert.Equal(t, 3, v, "numeric values are normalized")
	assert.Equal(t, 0, peer.Count(), "applying a remote value must not echo")
}

func TestReceiveMalformed(t *testing.T) {
	s := New(nil)
	tests := []struct {
		name string
		kind domain.EventKind
		args map[string]domain.Value
	}{
		{name: "data without id", kind: domain.KindData, args: map[string]domain.Value{"val": 1}},
		{name: "data without val", kind: domain.KindData, args: map[string]domain.Value{"id": "k"}},
		{name: "data with non-string id", kind: domain.KindData, args: map[string]domain.Value{"id": 7, "val": 1}},
		{name: "command without name", kind: domain.KindCommand, args: map[string]domain.Value{"format": "toml"}},
		{name: "unknown kind", kind: domain.EventKind(99), args: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Receive(domain.NewEvent("peer", tt.kind, tt.args))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
			assert.Empty(t, s.Entries())
		})
	}
}

func TestReceiveUnknownCommandIgnored(t *testing.T) {
	var calls []generateCall
	s := New(nil, WithGenerator(recordingGenerator(&calls, nil)))

	err := s.Receive(domain.NewCommand("peer", "explode", nil))

	assert.NoError(t, err)
	assert.Empty(t, calls)
}

func TestGenerateCommand(t *testing.T) {
	var calls []generateCall
	bus := eventbus.New()
	s := New(bus, WithGenerator(recordingGenerator(&calls, nil)))
	bus.Register(s)
	s.Seed(domain.DefaultSeeds())

	bus.Publish(domain.NewCommand("surface", domain.CommandGenerate, map[string]domain.Value{"format": "yaml"}))

	require.Len(t, calls, 1)
	assert.Equal(t, domain.Entries{
		"ca.cn":        "MyCA",
		"ca.valid":     3653,
		"client.count": 1,
		"client.valid": 3653,
		"server.host":  "127.0.0.1",
	}, calls[0].entries)
	assert.Equal(t, map[string]domain.Value{"format": "yaml"}, calls[0].opts, "routing metadata is stripped")
}

func TestGenerateFailure(t *testing.T) {
	var calls []generateCall
	boom := errors.New("disk full")
	s := New(nil, WithGenerator(recordingGenerator(&calls, boom)))

	err := s.Receive(domain.NewCommand("surface", domain.CommandGenerate, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, calls, 1)
}

func TestSeedIsBounded(t *testing.T) {
	bus := eventbus.New()
	s := New(bus)
	peer := eventbus.NewRecorder("peer")
	bus.Register(s)
	bus.Register(peer)

	seeds := []domain.Seed{{Key: "client.count", Value: 1}, {Key: "client.count", Value: 1}}
	s.Seed(seeds)

	assert.Equal(t, domain.Entries{"client.count": 1}, s.Entries())
	assert.LessOrEqual(t, peer.Count(), len(seeds))
	for _, ev := range peer.Events() {
		_, val, err := ev.Data()
		require.NoError(t, err)
		assert.Equal(t, 1, val)
	}
}

func TestSeedBeforePeerRegisteredDiverges(t *testing.T) {
	bus := eventbus.New()
	s := New(bus)
	bus.Register(s)
	s.Seed(domain.DefaultSeeds())

	late := eventbus.NewRecorder("late")
	bus.Register(late)

	assert.Equal(t, 0, late.Count(), "late peers miss the seed values")
}

func TestKeysSorted(t *testing.T) {
	s := New(nil)
	s.Seed(domain.DefaultSeeds())

	assert.Equal(t, []string{"ca.cn", "ca.valid", "client.count", "client.valid", "server.host"}, s.Keys())
}
