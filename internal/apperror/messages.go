package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeGasEstimationFailed:      "Gas estimation failed",

	// Venue quoting errors
	CodeQuoteFailed:        "Failed to get venue quote",
	CodeUnsupportedVenue:   "Unsupported trading venue",
	CodeInvalidQuote:       "Invalid quote data",
	CodeContractCallFailed: "Smart contract call failed",

	// Sizing errors
	CodeOracleNotCallable: "Buy and sell quote functions are required",
	CodeInvalidBounds:     "Invalid search bounds",

	// Arbitrage errors
	CodeTokenNotFound:        "Token not found in registry",
	CodeFlashLoanEncoding:    "Failed to encode flash loan call",
	CodeBelowProfitThreshold: "Profit below configured threshold",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
