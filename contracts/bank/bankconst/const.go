package bankconst

const (
	// Decimals is the precision of the unit-of-account token and therefore
	// of every balance tracked by the Bank contract.
	Decimals = 6

	// MaxSlippagePercent is the maximum accepted shortfall between a quoted
	// and a realized swap output.
	MaxSlippagePercent = 1

	// SwapDeadlineMs is the time window given to the exchange router to
	// complete a conversion, in milliseconds.
	SwapDeadlineMs = 5 * 60 * 1000
)

// Bank contract error messages. Kept as constants so that off-chain code can
// match faulted transactions against them.
const (
	// ErrZeroAmount appears when a deposit, withdrawal or capacity amount
	// is not positive.
	ErrZeroAmount = "amount must be positive"
	// ErrZeroAddress appears when an account argument is not a valid
	// 20-byte script hash.
	ErrZeroAddress = "invalid account address"
	// ErrInsufficientBalance appears when a withdrawal exceeds the
	// recorded balance of the account.
	ErrInsufficientBalance = "insufficient balance"
	// ErrCapacityExceeded appears when a deposit would push the running
	// total over the capacity ceiling.
	ErrCapacityExceeded = "capacity ceiling exceeded"
	// ErrTransferFailed appears when a token collaborator rejects a
	// transfer or an approval.
	ErrTransferFailed = "token transfer failed"
	// ErrInvalidToken appears when the conversion path is used with the
	// unit-of-account token or a malformed asset hash.
	ErrInvalidToken = "invalid deposit token"
	// ErrReentrantCall appears when a state-changing method is entered
	// again from within an external call of another state-changing method.
	ErrReentrantCall = "reentrant call"
	// ErrUnsolicitedTransfer appears when tokens are sent to the contract
	// outside of a deposit operation.
	ErrUnsolicitedTransfer = "unsolicited transfer"
)
