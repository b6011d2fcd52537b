package asset

import "github.com/ethereum/go-ethereum/common"

// AddrWETH is WETH9 on Ethereum mainnet, the flash-loaned asset.
var AddrWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

// WETH is the quote side of every sized route.
var WETH = NewToken("WETH", "Wrapped Ether", AddrWETH, 18)

// Scan targets on mainnet.
var (
	// Stablecoins
	USDC = NewToken("USDC", "USD Coin", common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6)
	USDT = NewToken("USDT", "Tether USD", common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), 6)
	DAI  = NewToken("DAI", "Dai Stablecoin", common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18)

	// DeFi
	UNI  = NewToken("UNI", "Uniswap", common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"), 18)
	AAVE = NewToken("AAVE", "Aave", common.HexToAddress("0x7Fc66500c84A76Ad7e9c93437bFc5Ac33E2DDaE9"), 18)
	LINK = NewToken("LINK", "Chainlink", common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"), 18)
	CRV  = NewToken("CRV", "Curve DAO", common.HexToAddress("0xD533a949740bb3306d119CC777fa900bA034cd52"), 18)

	// L2
	MATIC = NewToken("MATIC", "Polygon", common.HexToAddress("0x7D1AfA7B718fb893dB30A3aBc0Cfc608AaCfeBB0"), 18)
	ARB   = NewToken("ARB", "Arbitrum", common.HexToAddress("0xB50721BCf8d664c30412Cfbc6cf7a15145234ad1"), 18)

	// Lending
	COMP = NewToken("COMP", "Compound", common.HexToAddress("0xc00e94Cb662C3520282E6f5717214004A7f26888"), 18)
	MKR  = NewToken("MKR", "Maker", common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2"), 18)

	// Meme
	PEPE = NewToken("PEPE", "Pepe", common.HexToAddress("0x6982508145454Ce325dDbE47a25d4ec3d2311933"), 18)
	SHIB = NewToken("SHIB", "Shiba Inu", common.HexToAddress("0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE"), 18)

	// Gaming
	AXS  = NewToken("AXS", "Axie Infinity", common.HexToAddress("0xBB0E17EF65F82Ab018d8EDd776e8DD940327B28b"), 18)
	SAND = NewToken("SAND", "The Sandbox", common.HexToAddress("0x3845badAde8e6dFF049820680d1F14bD3903a5d0"), 18)

	// DEX
	SUSHI = NewToken("SUSHI", "SushiSwap", common.HexToAddress("0x6B3595068778DD592e39A122f4f5a5cF09C90fE2"), 18)
)

// ScanTokens lists the default scan targets in scan order.
func ScanTokens() []*Token {
	return []*Token{USDC, USDT, DAI, UNI, AAVE, LINK, CRV, MATIC, ARB, COMP, MKR, PEPE, SHIB, AXS, SAND, SUSHI}
}

// DefaultRegistry returns a registry holding WETH and every scan target.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(WETH)
	for _, t := range ScanTokens() {
		r.MustRegister(t)
	}
	return r
}
