package tests

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	stackItems := make([]stackitem.Item, 0)
	for iter.Next() {
		stackItems = append(stackItems, iter.Value())
	}
	return stackItems
}

// sumLedger recomputes the sum of all account balances via the contract's
// accounts iterator, independently of the stored running total.
func sumLedger(t *testing.T, bank *neotest.ContractInvoker) *big.Int {
	s, err := bank.TestInvoke(t, "accounts")
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	iter, ok := s.Pop().Value().(*storage.Iterator)
	require.True(t, ok)

	sum := big.NewInt(0)
	for _, kv := range iteratorToArray(iter) {
		pair, ok := kv.Value().([]stackitem.Item)
		require.True(t, ok)
		require.Len(t, pair, 2)

		balance, err := pair[1].TryInteger()
		require.NoError(t, err)
		require.True(t, balance.Sign() >= 0)

		sum.Add(sum, balance)
	}
	return sum
}

// ledgerEntries returns the number of accounts the contract has ever seen,
// including fully withdrawn ones.
func ledgerEntries(t *testing.T, bank *neotest.ContractInvoker) int {
	s, err := bank.TestInvoke(t, "accounts")
	require.NoError(t, err)

	iter, ok := s.Pop().Value().(*storage.Iterator)
	require.True(t, ok)

	return len(iteratorToArray(iter))
}
