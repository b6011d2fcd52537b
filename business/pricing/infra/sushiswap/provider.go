// Package sushiswap quotes swaps through the SushiSwap V2 router.
package sushiswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sizing-bot/business/pricing/app"
	"github.com/fd1az/sizing-bot/business/pricing/domain"
	"github.com/fd1az/sizing-bot/business/pricing/infra/onchain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

const tracerName = "github.com/fd1az/sizing-bot/business/pricing/infra/sushiswap"

var _ app.Quoter = (*Provider)(nil)

// Provider quotes the direct two-hop path [tokenIn, tokenOut].
type Provider struct {
	caller    *onchain.Caller
	router    common.Address
	routerABI abi.ABI

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a router provider.
func NewProvider(caller *onchain.Caller, router common.Address, log logger.LoggerInterface) (*Provider, error) {
	parsedABI, err := abi.JSON(strings.NewReader(RouterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	return &Provider{
		caller:    caller,
		router:    router,
		routerABI: parsedABI,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Venue implements app.Quoter.
func (p *Provider) Venue() domain.Venue {
	return domain.VenueSushiswap
}

// Quote implements app.Quoter.
func (p *Provider) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	ctx, span := p.tracer.Start(ctx, "sushiswap.quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("amountIn must be positive"))
	}

	callData, err := p.routerABI.Pack(methodGetAmountsOut, amountIn, []common.Address{tokenIn, tokenOut})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.caller.Call(ctx, p.router, callData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, err
	}

	outputs, err := p.routerABI.Unpack(methodGetAmountsOut, result)
	if err != nil || len(outputs) != 1 {
		span.SetStatus(codes.Error, "decode failed")
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(err),
			apperror.WithContext("getAmountsOut returned malformed data"))
	}

	amounts, ok := outputs[0].([]*big.Int)
	if !ok || len(amounts) != 2 || amounts[1].Sign() <= 0 {
		span.SetStatus(codes.Error, "empty quote")
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("router returned no output"))
	}
	amountOut := amounts[1]

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "sushiswap quote",
		"token_in", tokenIn.Hex(),
		"token_out", tokenOut.Hex(),
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
	)

	return amountOut, nil
}
