package exchange

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Mock exchange router used to test the Bank contract conversion path. It
// quotes along any two-hop path with a fixed rate, pays out with a separately
// configurable realized rate and can be told to miss the deadline or to call
// back into the caller mid-swap.

// Error messages the router fails swaps with.
const (
	ErrInsufficientOutput = "insufficient output amount"
	ErrDeadlineExceeded   = "exceeded deadline"
)

const (
	quoteNumKey    = 'q'
	quoteDenKey    = 'w'
	realizedNumKey = 'r'
	realizedDenKey = 's'
	clockSkewKey   = 'k'
	reentryKey     = 'n'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	ctx := storage.GetContext()
	storage.Put(ctx, quoteNumKey, 1)
	storage.Put(ctx, quoteDenKey, 1)
}

// SetRate replaces the quoting rate: a swap of amountIn is quoted as
// amountIn*num/den.
func SetRate(num, den int) {
	if num <= 0 || den <= 0 {
		panic("invalid rate")
	}
	ctx := storage.GetContext()
	storage.Put(ctx, quoteNumKey, num)
	storage.Put(ctx, quoteDenKey, den)
}

// SetRealizedRate replaces the rate actually paid out by swaps. If never
// set, swaps realize exactly the quoted rate.
func SetRealizedRate(num, den int) {
	if num <= 0 || den <= 0 {
		panic("invalid rate")
	}
	ctx := storage.GetContext()
	storage.Put(ctx, realizedNumKey, num)
	storage.Put(ctx, realizedDenKey, den)
}

// SetClockSkew makes the router behave as if swaps executed the given number
// of milliseconds later than they do.
func SetClockSkew(ms int) {
	storage.Put(storage.GetContext(), clockSkewKey, ms)
}

// SetReentry makes every swap call back into the calling contract before
// paying out.
func SetReentry(enabled bool) {
	ctx := storage.GetContext()
	if enabled {
		storage.Put(ctx, reentryKey, []byte{1})
	} else {
		storage.Delete(ctx, reentryKey)
	}
}

// Quote returns the expected amounts for swapping amountIn along the path.
func Quote(amountIn int, path []interop.Hash160) []int {
	if amountIn <= 0 {
		panic("amount must be positive")
	}
	checkPath(path)

	ctx := storage.GetReadOnlyContext()
	out := amountIn * storage.Get(ctx, quoteNumKey).(int) / storage.Get(ctx, quoteDenKey).(int)

	return []int{amountIn, out}
}

// SwapExactIn pulls amountIn of the path input token from the calling
// contract using its allowance and pays the realized output of the path
// output token to the recipient. Fails if the realized output is below
// amountOutMin or the deadline has passed.
func SwapExactIn(amountIn, amountOutMin int, path []interop.Hash160, recipient interop.Hash160, deadline int) []int {
	ctx := storage.GetContext()
	checkPath(path)
	checkDeadline(ctx, deadline)

	var (
		self   = runtime.GetExecutingScriptHash()
		caller = runtime.GetCallingScriptHash()
	)

	if !contract.Call(path[0], "transferFrom", contract.All, self, caller, self, amountIn, nil).(bool) {
		panic("input transfer failed")
	}

	return payOut(ctx, amountIn, amountOutMin, path, recipient, caller)
}

// SwapExactNativeIn is like SwapExactIn for GAS input. The caller is
// expected to have forwarded amountIn of GAS to the router before the call.
func SwapExactNativeIn(amountIn, amountOutMin int, path []interop.Hash160, recipient interop.Hash160, deadline int) []int {
	ctx := storage.GetContext()
	checkPath(path)
	checkDeadline(ctx, deadline)

	return payOut(ctx, amountIn, amountOutMin, path, recipient, runtime.GetCallingScriptHash())
}

// OnNEP17Payment accepts any incoming tokens, the router needs liquidity and
// forwarded swap inputs.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
}

func payOut(ctx storage.Context, amountIn, amountOutMin int, path []interop.Hash160, recipient, caller interop.Hash160) []int {
	num := storage.Get(ctx, realizedNumKey)
	den := storage.Get(ctx, realizedDenKey)
	if num == nil {
		num = storage.Get(ctx, quoteNumKey)
		den = storage.Get(ctx, quoteDenKey)
	}

	out := amountIn * num.(int) / den.(int)
	if out < amountOutMin {
		panic(ErrInsufficientOutput)
	}

	self := runtime.GetExecutingScriptHash()

	if storage.Get(ctx, reentryKey) != nil {
		contract.Call(caller, "withdrawAll", contract.All, self)
	}

	if !contract.Call(path[len(path)-1], "transfer", contract.All, self, recipient, out, nil).(bool) {
		panic("output transfer failed")
	}

	return []int{amountIn, out}
}

func checkPath(path []interop.Hash160) {
	if len(path) != 2 {
		panic("malformed path")
	}
}

func checkDeadline(ctx storage.Context, deadline int) {
	skew := 0
	if s := storage.Get(ctx, clockSkewKey); s != nil {
		skew = s.(int)
	}
	if runtime.GetTime()+skew > deadline {
		panic(ErrDeadlineExceeded)
	}
}
