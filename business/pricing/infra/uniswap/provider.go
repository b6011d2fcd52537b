// Package uniswap quotes exact-input swaps through the Uniswap V3 QuoterV2.
package uniswap

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

const tracerName = "github.com/fd1az/sizing-bot/business/pricing/infra/uniswap"

var _ app.Quoter = (*Provider)(nil)

// Provider quotes a single configured fee tier.
type Provider struct {
	caller    *onchain.Caller
	quoter    common.Address
	quoterABI abi.ABI
	feeTier   *big.Int

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a QuoterV2 provider for feeTier.
func NewProvider(caller *onchain.Caller, quoter common.Address, feeTier int, log logger.LoggerInterface) (*Provider, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}
	if feeTier <= 0 {
		feeTier = FeeTier030
	}

	return &Provider{
		caller:    caller,
		quoter:    quoter,
		quoterABI: parsedABI,
		feeTier:   big.NewInt(int64(feeTier)),
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Venue implements app.Quoter.
func (p *Provider) Venue() domain.Venue {
	return domain.VenueUniswap
}

// Quote implements app.Quoter.
func (p *Provider) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	ctx, span := p.tracer.Start(ctx, "uniswap.quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount_in", amountIn.String()),
			attribute.Int64("fee_tier", p.feeTier.Int64()),
		),
	)
	defer span.End()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("amountIn must be positive"))
	}

	callData, err := p.quoterABI.Pack(methodQuoteExactInputSingle, QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               p.feeTier,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.caller.Call(ctx, p.quoter, callData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, err
	}

	outputs, err := p.quoterABI.Unpack(methodQuoteExactInputSingle, result)
	if err != nil || len(outputs) < 4 {
		span.SetStatus(codes.Error, "decode failed")
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(err),
			apperror.WithContext("quoteExactInputSingle returned malformed data"))
	}

	amountOut, ok := outputs[0].(*big.Int)
	if !ok || amountOut.Sign() <= 0 {
		span.SetStatus(codes.Error, "empty quote")
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("quoter returned no output"))
	}

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "uniswap quote",
		"token_in", tokenIn.Hex(),
		"token_out", tokenOut.Hex(),
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
		"fee_tier", p.feeTier.Int64(),
	)

	return amountOut, nil
}
