/*
Package bank implements Bank contract.

Bank contract accepts deposits of the unit-of-account NEP-17 token, of GAS
and of arbitrary NEP-17 assets, converts foreign assets into the
unit-of-account token through an external exchange router and tracks
per-account balances against a global capacity ceiling. Withdrawals are paid
out in the unit-of-account token only.

Conversion deposits are quoted by the router first; the contract accepts at
most 1% slippage against the quote and gives the router a 5 minute window to
complete the swap. The capacity ceiling is checked against the minimum
acceptable output before the swap, while the realized output is credited
as-is. A sequence of conversion deposits near the ceiling can therefore push
the running total over the ceiling by up to the slippage margin. This is a
known property of the accounting scheme, not an accident, and AvailableCapacity
is allowed to report a negative value in that state.

All state-changing methods run under a transaction guard: a callback into any
of them from within an external call of another one fails. Tokens sent to the
contract outside of a deposit operation are rejected in OnNEP17Payment.

# Contract notifications

Deposit notification. Produced on every successful deposit with the amount
credited to the account (for conversion deposits this is the realized swap
output).

	Deposit:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer

Conversion notification. Produced by conversion deposits before the Deposit
notification. AssetIn is the GAS contract hash for native deposits.

	Conversion:
	  - name: from
	    type: Hash160
	  - name: assetIn
	    type: Hash160
	  - name: amountIn
	    type: Integer
	  - name: amountOut
	    type: Integer

Withdrawal notification. Produced on every successful withdrawal.

	Withdrawal:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer

CapacityUpdated notification. Produced when the owner replaces the capacity
ceiling.

	CapacityUpdated:
	  - name: oldCeiling
	    type: Integer
	  - name: newCeiling
	    type: Integer

OwnershipTransferred notification. Produced when the owner reassigns the
contract ownership.

	OwnershipTransferred:
	  - name: oldOwner
	    type: Hash160
	  - name: newOwner
	    type: Hash160
*/
package bank

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'o' -> interop.Hash160
   contract owner
 - 'u' -> interop.Hash160
   unit-of-account token contract
 - 'e' -> interop.Hash160
   exchange router contract
 - 'c' -> int
   capacity ceiling in the smallest subdivision of the unit-of-account token
 - 't' -> int
   running total of all account balances
 - 'a<interop.Hash160>' -> int
   balance sheet of all depositors, entries persist at zero
 - 'x' -> []byte
   transaction guard flag, present only while a state-changing call is
   executing

# Accounting
The sum of all 'a'-prefixed entries always equals the 't' entry. The total
never exceeds the ceiling after a direct deposit; conversion deposits may
overshoot it by up to the slippage margin as described in the package
documentation.
*/
