package domain_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
)

func TestComputeMaxFee(t *testing.T) {
	base := domain.GweiToWei(30)
	tip := domain.GweiToWei(2)

	got := domain.ComputeMaxFee(base, tip)

	assert.Equal(t, domain.GweiToWei(62).String(), got.String())
	assert.Equal(t, domain.GweiToWei(30).String(), base.String(), "base fee must not be mutated")
}

func TestComputeMaxFee_NilInputs(t *testing.T) {
	assert.Equal(t, "0", domain.ComputeMaxFee(nil, nil).String())
}

func TestGasCost(t *testing.T) {
	cost := domain.GasCost(350_000, domain.GweiToWei(40))
	// 350k gas at 40 gwei = 0.014 ETH
	assert.Equal(t, "14000000000000000", cost.String())
	assert.Equal(t, "0", domain.GasCost(350_000, nil).String())
}

func TestGasPrice_Capped(t *testing.T) {
	p := domain.NewGasPrice(domain.GweiToWei(300), domain.GweiToWei(2), 10)

	capped, hit := p.Capped(domain.GweiToWei(500))
	assert.True(t, hit)
	assert.Equal(t, domain.GweiToWei(500).String(), capped.MaxFee.String())
	assert.Equal(t, domain.GweiToWei(602).String(), p.MaxFee.String())

	same, hit := p.Capped(big.NewInt(0))
	assert.False(t, hit)
	assert.Same(t, p, same)
}

func TestFallbackGasPrice(t *testing.T) {
	p := domain.FallbackGasPrice(domain.GweiToWei(40), domain.GweiToWei(2))
	assert.True(t, p.Fallback)
	assert.InDelta(t, 40.0, p.Gwei(), 1e-9)
}
