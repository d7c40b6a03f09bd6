package token

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Fungible token with an owner-gated mint and Uniswap-style allowances on
// top of the NEP-17 surface. Test companion of the Bank contract, it plays
// both the unit-of-account and the foreign asset roles.

const (
	balancePrefix   = 'b'
	allowancePrefix = 'w'

	ownerKey    = 'o'
	symbolKey   = 's'
	decimalsKey = 'd'
	supplyKey   = 'c'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	args := data.(struct {
		owner    interop.Hash160
		symbol   string
		decimals int
	})

	if len(args.owner) != interop.Hash160Len {
		panic("invalid owner")
	}

	ctx := storage.GetContext()
	storage.Put(ctx, ownerKey, args.owner)
	storage.Put(ctx, symbolKey, args.symbol)
	storage.Put(ctx, decimalsKey, args.decimals)
}

// Symbol is a NEP-17 standard method that returns the token ticker.
func Symbol() string {
	return storage.Get(storage.GetReadOnlyContext(), symbolKey).(string)
}

// Decimals is a NEP-17 standard method that returns the token precision.
func Decimals() int {
	return storage.Get(storage.GetReadOnlyContext(), decimalsKey).(int)
}

// TotalSupply is a NEP-17 standard method that returns the amount of minted
// tokens.
func TotalSupply() int {
	return getInt(storage.GetReadOnlyContext(), supplyKey)
}

// BalanceOf is a NEP-17 standard method that returns the token balance of
// the specified account.
func BalanceOf(account interop.Hash160) int {
	return getInt(storage.GetReadOnlyContext(), balanceKey(account))
}

// Mint creates the given amount of tokens on the specified account. It can
// be invoked only by the token owner.
func Mint(to interop.Hash160, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic("amount must be positive")
	}
	owner := storage.Get(ctx, ownerKey).(interop.Hash160)
	if !runtime.CheckWitness(owner) {
		panic("only owner can mint")
	}

	addToBalance(ctx, to, amount)
	storage.Put(ctx, supplyKey, getInt(ctx, supplyKey)+amount)

	runtime.Notify("Transfer", interop.Hash160(nil), to, amount)
	postTransfer(nil, to, amount, nil)
}

// Transfer is a NEP-17 standard method that moves tokens between accounts.
// It can be invoked by the owning account or by a contract acting as one.
func Transfer(from, to interop.Hash160, amount int, data any) bool {
	if amount < 0 {
		panic("negative amount")
	}
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("bad script hashes")
	}
	if !isUsableAddress(from) {
		return false
	}

	ctx := storage.GetContext()
	if !move(ctx, from, to, amount) {
		return false
	}

	runtime.Notify("Transfer", from, to, amount)
	postTransfer(from, to, amount, data)

	return true
}

// Approve allows the spender to move up to the given amount of tokens from
// the owner account via TransferFrom. It can be invoked by the owning
// account or by a contract acting as one.
func Approve(owner, spender interop.Hash160, amount int) bool {
	if amount < 0 {
		panic("negative amount")
	}
	if len(owner) != interop.Hash160Len || len(spender) != interop.Hash160Len {
		panic("bad script hashes")
	}
	if !isUsableAddress(owner) {
		return false
	}

	storage.Put(storage.GetContext(), allowanceKey(owner, spender), amount)
	runtime.Notify("Approval", owner, spender, amount)

	return true
}

// Allowance returns the remaining amount the spender may move from the owner
// account.
func Allowance(owner, spender interop.Hash160) int {
	return getInt(storage.GetReadOnlyContext(), allowanceKey(owner, spender))
}

// TransferFrom moves tokens from the owner account on behalf of the spender,
// consuming the spender's allowance.
func TransferFrom(spender, from, to interop.Hash160, amount int, data any) bool {
	if amount < 0 {
		panic("negative amount")
	}
	if len(spender) != interop.Hash160Len || len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("bad script hashes")
	}
	if !isUsableAddress(spender) {
		return false
	}

	ctx := storage.GetContext()

	key := allowanceKey(from, spender)
	allowed := getInt(ctx, key)
	if allowed < amount {
		return false
	}

	if !move(ctx, from, to, amount) {
		return false
	}
	storage.Put(ctx, key, allowed-amount)

	runtime.Notify("Transfer", from, to, amount)
	postTransfer(from, to, amount, data)

	return true
}

func move(ctx storage.Context, from, to interop.Hash160, amount int) bool {
	fromKey := balanceKey(from)
	balance := getInt(ctx, fromKey)
	if balance < amount {
		return false
	}

	storage.Put(ctx, fromKey, balance-amount)
	addToBalance(ctx, to, amount)

	return true
}

func addToBalance(ctx storage.Context, to interop.Hash160, amount int) {
	key := balanceKey(to)
	storage.Put(ctx, key, getInt(ctx, key)+amount)
}

// postTransfer notifies a contract recipient about the incoming tokens the
// NEP-17 way.
func postTransfer(from, to interop.Hash160, amount int, data any) {
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP17Payment", contract.All, from, amount, data)
	}
}

// isUsableAddress checks if the account is either a transaction signer or
// the directly calling contract.
func isUsableAddress(addr interop.Hash160) bool {
	if runtime.CheckWitness(addr) {
		return true
	}

	callingScriptHash := runtime.GetCallingScriptHash()

	return callingScriptHash.Equals(addr)
}

func getInt(ctx storage.Context, key interface{}) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}

	return 0
}

func balanceKey(account interop.Hash160) []byte {
	return append([]byte{balancePrefix}, account...)
}

func allowanceKey(owner, spender interop.Hash160) []byte {
	key := append([]byte{allowancePrefix}, owner...)
	return append(key, spender...)
}
