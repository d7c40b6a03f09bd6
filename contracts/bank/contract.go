package bank

import (
	"github.com/neobank/bank-contract/common"
	"github.com/neobank/bank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	accountPrefix = 'a'

	ownerKey    = 'o'
	ceilingKey  = 'c'
	totalKey    = 't'
	tokenKey    = 'u'
	exchangeKey = 'e'

	// guardKey is present in storage only while a state-changing method is
	// executing. It doubles as the marker that makes incoming NEP-17
	// transfers acceptable, see OnNEP17Payment.
	guardKey = 'x'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()

	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner    interop.Hash160
		token    interop.Hash160
		exchange interop.Hash160
		ceiling  int
	})

	if len(args.owner) != interop.Hash160Len {
		panic(bankconst.ErrZeroAddress)
	}
	if len(args.token) != interop.Hash160Len || len(args.exchange) != interop.Hash160Len {
		panic(bankconst.ErrInvalidToken)
	}
	if args.ceiling <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	storage.Put(ctx, ownerKey, args.owner)
	storage.Put(ctx, tokenKey, args.token)
	storage.Put(ctx, exchangeKey, args.exchange)
	storage.Put(ctx, ceilingKey, args.ceiling)

	runtime.Log("bank contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the contract owner.
func Update(nefFile, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	common.CheckOwnerWitness(storage.Get(ctx, ownerKey).(interop.Hash160))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("bank contract updated")
}

// Deposit credits the specified account with the given amount of the
// unit-of-account token pulled from that same account. It can be invoked only
// by the account itself. The deposit is rejected if it would push the running
// total of all balances over the capacity ceiling.
//
// It produces Deposit notification.
func Deposit(from interop.Hash160, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}
	common.CheckOwnerWitness(from)

	lockTransaction(ctx)

	checkCapacity(ctx, amount)

	self := runtime.GetExecutingScriptHash()
	if !transferToken(unitToken(ctx), from, self, amount) {
		panic(bankconst.ErrTransferFailed)
	}

	credit(ctx, from, amount)
	runtime.Notify("Deposit", from, amount)

	unlockTransaction(ctx)
}

// DepositNative converts the given amount of GAS pulled from the specified
// account into the unit-of-account token via the exchange router and credits
// the account with the realized swap output. It can be invoked only by the
// account itself.
//
// The capacity check is performed before the swap against the minimum
// acceptable output (99% of the router quote), not the realized one. The
// realized output is credited without a second check, so the running total
// may legitimately end up above the ceiling by up to the slippage margin.
//
// It produces Conversion and Deposit notifications.
func DepositNative(from interop.Hash160, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}
	common.CheckOwnerWitness(from)

	lockTransaction(ctx)

	var (
		gasToken = interop.Hash160(gas.Hash)
		exch     = exchangeRouter(ctx)
		path     = []interop.Hash160{gasToken, unitToken(ctx)}
		minOut   = minAcceptableOut(quote(exch, amount, path))
	)

	checkCapacity(ctx, minOut)

	self := runtime.GetExecutingScriptHash()
	if !gas.Transfer(from, self, amount, nil) {
		panic(bankconst.ErrTransferFailed)
	}
	// The router spends the forwarded GAS, it has no way to pull native
	// currency itself.
	if !gas.Transfer(self, exch, amount, nil) {
		panic(bankconst.ErrTransferFailed)
	}

	deadline := runtime.GetTime() + bankconst.SwapDeadlineMs
	amounts := contract.Call(exch, "swapExactNativeIn", contract.All,
		amount, minOut, path, self, deadline).([]int)
	out := amounts[len(amounts)-1]

	credit(ctx, from, out)
	runtime.Notify("Conversion", from, gasToken, amount, out)
	runtime.Notify("Deposit", from, out)

	unlockTransaction(ctx)
}

// DepositForeign converts the given amount of an arbitrary NEP-17 asset
// pulled from the specified account into the unit-of-account token via the
// exchange router and credits the account with the realized swap output. It
// can be invoked only by the account itself. Depositing the unit-of-account
// token through this method is rejected, use Deposit.
//
// Capacity semantics are the same as in DepositNative.
//
// It produces Conversion and Deposit notifications.
func DepositForeign(from, asset interop.Hash160, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}
	unit := unitToken(ctx)
	if len(asset) != interop.Hash160Len || asset.Equals(unit) {
		panic(bankconst.ErrInvalidToken)
	}
	common.CheckOwnerWitness(from)

	lockTransaction(ctx)

	var (
		exch   = exchangeRouter(ctx)
		path   = []interop.Hash160{asset, unit}
		minOut = minAcceptableOut(quote(exch, amount, path))
	)

	checkCapacity(ctx, minOut)

	self := runtime.GetExecutingScriptHash()
	if !transferToken(asset, from, self, amount) {
		panic(bankconst.ErrTransferFailed)
	}
	if !contract.Call(asset, "approve", contract.All, self, exch, amount).(bool) {
		panic(bankconst.ErrTransferFailed)
	}

	deadline := runtime.GetTime() + bankconst.SwapDeadlineMs
	amounts := contract.Call(exch, "swapExactIn", contract.All,
		amount, minOut, path, self, deadline).([]int)
	out := amounts[len(amounts)-1]

	credit(ctx, from, out)
	runtime.Notify("Conversion", from, asset, amount, out)
	runtime.Notify("Deposit", from, out)

	unlockTransaction(ctx)
}

// Withdraw debits the specified account by the given amount and transfers
// that amount of the unit-of-account token back to it. It can be invoked only
// by the account itself. The ledger is updated before the token leaves the
// contract.
//
// It produces Withdrawal notification.
func Withdraw(from interop.Hash160, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}
	common.CheckOwnerWitness(from)

	lockTransaction(ctx)

	debit(ctx, from, amount)

	if !transferToken(unitToken(ctx), runtime.GetExecutingScriptHash(), from, amount) {
		panic(bankconst.ErrTransferFailed)
	}
	runtime.Notify("Withdrawal", from, amount)

	unlockTransaction(ctx)
}

// WithdrawAll withdraws the entire recorded balance of the specified account,
// leaving it at exactly zero. The account entry itself persists. It can be
// invoked only by the account itself.
//
// It produces Withdrawal notification.
func WithdrawAll(from interop.Hash160) {
	ctx := storage.GetContext()

	common.CheckOwnerWitness(from)

	lockTransaction(ctx)

	amount := common.GetIntOrZero(ctx, accountKey(from))
	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	debit(ctx, from, amount)

	if !transferToken(unitToken(ctx), runtime.GetExecutingScriptHash(), from, amount) {
		panic(bankconst.ErrTransferFailed)
	}
	runtime.Notify("Withdrawal", from, amount)

	unlockTransaction(ctx)
}

// UpdateCapacity replaces the capacity ceiling. It can be invoked only by the
// contract owner. The new ceiling is not checked against the current running
// total: a reduction below it is allowed and simply blocks further deposits
// until withdrawals bring the total back under the ceiling.
//
// It produces CapacityUpdated notification.
func UpdateCapacity(newCeiling int) {
	ctx := storage.GetContext()

	if newCeiling <= 0 {
		panic(bankconst.ErrZeroAmount)
	}
	common.CheckOwnerWitness(storage.Get(ctx, ownerKey).(interop.Hash160))

	lockTransaction(ctx)

	oldCeiling := storage.Get(ctx, ceilingKey).(int)
	storage.Put(ctx, ceilingKey, newCeiling)
	runtime.Notify("CapacityUpdated", oldCeiling, newCeiling)

	unlockTransaction(ctx)
}

// TransferOwnership reassigns the contract owner. It can be invoked only by
// the current owner. Transfer to a malformed or empty script hash is
// rejected.
//
// It produces OwnershipTransferred notification.
func TransferOwnership(newOwner interop.Hash160) {
	ctx := storage.GetContext()

	if len(newOwner) != interop.Hash160Len {
		panic(bankconst.ErrZeroAddress)
	}
	oldOwner := storage.Get(ctx, ownerKey).(interop.Hash160)
	common.CheckOwnerWitness(oldOwner)

	lockTransaction(ctx)

	storage.Put(ctx, ownerKey, newOwner)
	runtime.Notify("OwnershipTransferred", oldOwner, newOwner)

	unlockTransaction(ctx)
}

// OnNEP17Payment is a callback for incoming NEP-17 transfers. The contract
// accepts tokens only while one of its deposit methods is executing; any
// transfer outside of that window is rejected and the carrier transaction
// fails.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetReadOnlyContext()
	if storage.Get(ctx, guardKey) == nil {
		panic(bankconst.ErrUnsolicitedTransfer)
	}
}

// BalanceOf returns the recorded balance of the specified account in the
// smallest subdivision of the unit-of-account token.
func BalanceOf(account interop.Hash160) int {
	return common.GetIntOrZero(storage.GetReadOnlyContext(), accountKey(account))
}

// TotalDeposited returns the running total of all recorded balances.
func TotalDeposited() int {
	return common.GetIntOrZero(storage.GetReadOnlyContext(), totalKey)
}

// CapacityCeiling returns the maximum permitted running total.
func CapacityCeiling() int {
	return storage.Get(storage.GetReadOnlyContext(), ceilingKey).(int)
}

// AvailableCapacity returns the amount that can still be deposited before
// the running total reaches the capacity ceiling. The result is negative if
// conversion deposits have pushed the total over the ceiling, see
// DepositNative.
func AvailableCapacity() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, ceilingKey).(int) - common.GetIntOrZero(ctx, totalKey)
}

// Owner returns the contract owner.
func Owner() interop.Hash160 {
	return storage.Get(storage.GetReadOnlyContext(), ownerKey).(interop.Hash160)
}

// Token returns the unit-of-account token contract.
func Token() interop.Hash160 {
	return unitToken(storage.GetReadOnlyContext())
}

// Exchange returns the exchange router contract.
func Exchange() interop.Hash160 {
	return exchangeRouter(storage.GetReadOnlyContext())
}

// EstimateConversion returns the raw router quote for converting the given
// amount of an asset into the unit-of-account token. No slippage adjustment
// is applied, the value is informational only.
func EstimateConversion(asset interop.Hash160, amount int) int {
	ctx := storage.GetReadOnlyContext()

	unit := unitToken(ctx)
	if len(asset) != interop.Hash160Len || asset.Equals(unit) {
		panic(bankconst.ErrInvalidToken)
	}

	return quote(exchangeRouter(ctx), amount, []interop.Hash160{asset, unit})
}

// Accounts returns an iterator over all accounts that ever held a deposit.
// Iteration is through key-value pairs, where key is the account script hash
// and value is its current balance (possibly zero).
func Accounts() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte{accountPrefix}, storage.RemovePrefix)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// lockTransaction rejects nested state-changing calls. The flag is visible
// to any contract called back during the operation, reads are left
// unrestricted.
func lockTransaction(ctx storage.Context) {
	if storage.Get(ctx, guardKey) != nil {
		panic(bankconst.ErrReentrantCall)
	}
	storage.Put(ctx, guardKey, []byte{1})
}

func unlockTransaction(ctx storage.Context) {
	storage.Delete(ctx, guardKey)
}

func checkCapacity(ctx storage.Context, amount int) {
	total := common.GetIntOrZero(ctx, totalKey)
	ceiling := storage.Get(ctx, ceilingKey).(int)
	if total+amount > ceiling {
		panic(bankconst.ErrCapacityExceeded)
	}
}

// credit increases the account balance and the running total. Account
// entries are never removed afterwards, a fully withdrawn account persists
// at zero.
func credit(ctx storage.Context, to interop.Hash160, amount int) {
	key := accountKey(to)
	storage.Put(ctx, key, common.GetIntOrZero(ctx, key)+amount)
	storage.Put(ctx, totalKey, common.GetIntOrZero(ctx, totalKey)+amount)
}

func debit(ctx storage.Context, from interop.Hash160, amount int) {
	key := accountKey(from)
	balance := common.GetIntOrZero(ctx, key)
	if balance < amount {
		panic(bankconst.ErrInsufficientBalance)
	}
	storage.Put(ctx, key, balance-amount)
	storage.Put(ctx, totalKey, common.GetIntOrZero(ctx, totalKey)-amount)
}

func accountKey(account interop.Hash160) []byte {
	return append([]byte{accountPrefix}, account...)
}

func unitToken(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, tokenKey).(interop.Hash160)
}

func exchangeRouter(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, exchangeKey).(interop.Hash160)
}

// quote asks the router for the expected output of a swap along the path and
// returns the last element of the amounts array.
func quote(exch interop.Hash160, amountIn int, path []interop.Hash160) int {
	amounts := contract.Call(exch, "quote", contract.ReadOnly, amountIn, path).([]int)
	return amounts[len(amounts)-1]
}

func minAcceptableOut(quoted int) int {
	return quoted * (100 - bankconst.MaxSlippagePercent) / 100
}

func transferToken(token, from, to interop.Hash160, amount int) bool {
	return contract.Call(token, "transfer", contract.All, from, to, amount, nil).(bool)
}
