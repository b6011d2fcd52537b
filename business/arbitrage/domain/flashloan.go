package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	pricingDomain "github.com/fd1az/sizing-bot/business/pricing/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
)

// FlashLoanReceiverABI holds the entry point of the receiver contract.
const FlashLoanReceiverABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "params", "type": "bytes"}
		],
		"name": "requestFlashLoan",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const methodRequestFlashLoan = "requestFlashLoan"

var (
	receiverABI = mustParseABI(FlashLoanReceiverABI)
	// (uint8 dexToBuyId, address weth, address token, uint24 fee, uint256 expectedProfit)
	paramsArgs = mustArguments("uint8", "address", "address", "uint24", "uint256")
)

// FlashLoanParams is the payload the receiver decodes inside its callback.
type FlashLoanParams struct {
	DexToBuyID     uint8
	WETH           common.Address
	Token          common.Address
	Fee            uint32 // uint24 pool fee
	ExpectedProfit *big.Int
}

// NewFlashLoanParams builds the payload for a route. The buy venue must
// have a receiver-side identifier.
func NewFlashLoanParams(route Route, weth, token common.Address, fee uint32, profit *big.Int) (FlashLoanParams, error) {
	id, ok := route.Buy.DexID()
	if !ok {
		return FlashLoanParams{}, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(route.Buy.String()))
	}
	if fee >= 1<<24 {
		return FlashLoanParams{}, apperror.New(apperror.CodeFlashLoanEncoding,
			apperror.WithContext(fmt.Sprintf("fee %d does not fit uint24", fee)))
	}
	p := new(big.Int)
	if profit != nil {
		p.Set(profit)
	}
	return FlashLoanParams{DexToBuyID: id, WETH: weth, Token: token, Fee: fee, ExpectedProfit: p}, nil
}

// Encode returns the ABI encoding of the payload.
func (p FlashLoanParams) Encode() ([]byte, error) {
	profit := p.ExpectedProfit
	if profit == nil {
		profit = new(big.Int)
	}
	if profit.Sign() < 0 {
		return nil, apperror.New(apperror.CodeFlashLoanEncoding,
			apperror.WithContext("negative expected profit"))
	}
	out, err := paramsArgs.Pack(p.DexToBuyID, p.WETH, p.Token, new(big.Int).SetUint64(uint64(p.Fee)), profit)
	if err != nil {
		return nil, apperror.New(apperror.CodeFlashLoanEncoding, apperror.WithCause(err))
	}
	return out, nil
}

// DecodeFlashLoanParams reverses Encode.
func DecodeFlashLoanParams(data []byte) (FlashLoanParams, error) {
	vals, err := paramsArgs.Unpack(data)
	if err != nil {
		return FlashLoanParams{}, apperror.New(apperror.CodeFlashLoanEncoding, apperror.WithCause(err))
	}
	return FlashLoanParams{
		DexToBuyID:     vals[0].(uint8),
		WETH:           vals[1].(common.Address),
		Token:          vals[2].(common.Address),
		Fee:            uint32(vals[3].(*big.Int).Uint64()),
		ExpectedProfit: vals[4].(*big.Int),
	}, nil
}

// RequestCalldata returns the full requestFlashLoan(WETH, amount, params)
// call data for the receiver contract.
func (p FlashLoanParams) RequestCalldata(amount *big.Int) ([]byte, error) {
	params, err := p.Encode()
	if err != nil {
		return nil, err
	}
	data, err := receiverABI.Pack(methodRequestFlashLoan, p.WETH, amount, params)
	if err != nil {
		return nil, apperror.New(apperror.CodeFlashLoanEncoding, apperror.WithCause(err))
	}
	return data, nil
}

// TxFees are the EIP-1559 fee fields of a prepared transaction.
type TxFees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasLimit             uint64
}

// UnsignedTx wraps calldata in a dynamic-fee transaction to receiver. The
// nonce is left at zero; the transaction is prepared for inspection only.
func UnsignedTx(chainID *big.Int, receiver common.Address, calldata []byte, fees TxFees) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		GasTipCap: fees.MaxPriorityFeePerGas,
		GasFeeCap: fees.MaxFeePerGas,
		Gas:       fees.GasLimit,
		To:        &receiver,
		Value:     new(big.Int),
		Data:      calldata,
	})
}

// VenueForDexID maps a receiver identifier back to its venue.
func VenueForDexID(id uint8) (pricingDomain.Venue, bool) {
	for _, v := range pricingDomain.Venues() {
		if got, ok := v.DexID(); ok && got == id {
			return v, true
		}
	}
	return "", false
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustArguments(typeNames ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(typeNames))
	for _, name := range typeNames {
		t, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: t})
	}
	return args
}
