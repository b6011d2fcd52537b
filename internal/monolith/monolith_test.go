package monolith_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/health"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/monolith"
)

type nopCaller struct{}

func (nopCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type recordingHealth struct{ names []string }

func (r *recordingHealth) RegisterCheck(name string, _ health.CheckFunc) {
	r.names = append(r.names, name)
}

type orderModule struct {
	name  string
	trace *[]string
}

func (m orderModule) RegisterServices(c di.Container) error {
	*m.trace = append(*m.trace, "register:"+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m orderModule) Startup(_ context.Context, mono monolith.Monolith) error {
	*m.trace = append(*m.trace, "start:"+m.name)
	mono.Health().RegisterCheck(m.name, nil)
	return nil
}

func TestMonolith_RegistersSharedServices(t *testing.T) {
	cfg := &config.Config{}
	mono, err := monolith.New(context.Background(), cfg, logger.NewNop(), monolith.WithCaller(nopCaller{}))
	require.NoError(t, err)
	defer mono.Close()

	assert.Same(t, cfg, mono.Services().Get(monolith.ServiceConfig))
	assert.NotNil(t, mono.Services().Get(monolith.ServiceCaller))
	assert.Equal(t, 17, mono.AssetRegistry().Count())
}

func TestMonolith_ModuleLifecycle(t *testing.T) {
	h := &recordingHealth{}
	mono, err := monolith.New(context.Background(), &config.Config{}, logger.NewNop(),
		monolith.WithCaller(nopCaller{}), monolith.WithHealth(h))
	require.NoError(t, err)

	var trace []string
	mods := []monolith.Module{orderModule{"a", &trace}, orderModule{"b", &trace}}

	require.NoError(t, mono.RegisterModules(mods...))
	require.NoError(t, mono.StartModules(context.Background(), mods...))

	assert.Equal(t, []string{"register:a", "register:b", "start:a", "start:b"}, trace)
	assert.Equal(t, []string{"a", "b"}, h.names)
	assert.Equal(t, "b", mono.Services().Get("b"))
}
