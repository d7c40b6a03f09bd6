package tests

import (
	"path"
	"testing"

	"github.com/neobank/bank-contract/common"
	"github.com/neobank/bank-contract/contracts/bank/bankconst"
	"github.com/neobank/bank-contract/internal/testcontracts/exchange"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	bankPath     = "../contracts/bank"
	tokenPath    = "../internal/testcontracts/token"
	exchangePath = "../internal/testcontracts/exchange"
)

const startCeiling = int64(1_000_000)

type bankEnv struct {
	*neotest.Executor

	bank     *neotest.ContractInvoker
	bankHash util.Uint160

	unit     *neotest.ContractInvoker
	unitHash util.Uint160

	foreign     *neotest.ContractInvoker
	foreignHash util.Uint160

	router     *neotest.ContractInvoker
	routerHash util.Uint160
}

func newBankEnv(t *testing.T, ceiling int64) *bankEnv {
	e := newExecutor(t)

	tokenCtr := neotest.CompileFile(t, e.CommitteeHash, tokenPath, path.Join(tokenPath, "config.yml"))
	e.DeployContract(t, tokenCtr, []interface{}{e.CommitteeHash, "UOA", 6})

	// The same NEF deployed by another sender yields a distinct contract,
	// it plays the foreign asset role. The deployer pays the flat deploy
	// system fee, so it needs more GAS than the default funding.
	foreignDeployer := e.NewAccount(t, 20_000_000_000)
	foreignHash := state.CreateContractHash(foreignDeployer.ScriptHash(), tokenCtr.NEF.Checksum, tokenCtr.Manifest.Name)
	deployTx := neotest.NewDeployTxBy(t, e.Chain, foreignDeployer, tokenCtr, []interface{}{e.CommitteeHash, "FRN", 8})
	e.AddNewBlock(t, deployTx)
	e.CheckHalt(t, deployTx.Hash())

	routerCtr := neotest.CompileFile(t, e.CommitteeHash, exchangePath, path.Join(exchangePath, "config.yml"))
	e.DeployContract(t, routerCtr, nil)

	bankCtr := neotest.CompileFile(t, e.CommitteeHash, bankPath, path.Join(bankPath, "config.yml"))
	e.DeployContract(t, bankCtr, []interface{}{e.CommitteeHash, tokenCtr.Hash, routerCtr.Hash, ceiling})

	env := &bankEnv{
		Executor:    e,
		bank:        e.CommitteeInvoker(bankCtr.Hash),
		bankHash:    bankCtr.Hash,
		unit:        e.CommitteeInvoker(tokenCtr.Hash),
		unitHash:    tokenCtr.Hash,
		foreign:     e.CommitteeInvoker(foreignHash),
		foreignHash: foreignHash,
		router:      e.CommitteeInvoker(routerCtr.Hash),
		routerHash:  routerCtr.Hash,
	}

	// Unit token liquidity for the router payouts.
	env.unit.Invoke(t, stackitem.Null{}, "mint", env.routerHash, int64(100_000_000))

	return env
}

func (env *bankEnv) newDepositor(t *testing.T, unitFunds int64) (neotest.Signer, *neotest.ContractInvoker) {
	acc := env.NewAccount(t)
	if unitFunds > 0 {
		env.unit.Invoke(t, stackitem.Null{}, "mint", acc.ScriptHash(), unitFunds)
	}
	return acc, env.bank.WithSigners(acc)
}

// checkLedger asserts that the stored running total matches both the
// expected value and the recomputed sum of every account entry.
func (env *bankEnv) checkLedger(t *testing.T, expectedTotal int64) {
	env.bank.Invoke(t, expectedTotal, "totalDeposited")
	require.EqualValues(t, expectedTotal, sumLedger(t, env.bank).Int64())
}

func TestBankDeployValidation(t *testing.T) {
	e := newExecutor(t)

	tokenCtr := neotest.CompileFile(t, e.CommitteeHash, tokenPath, path.Join(tokenPath, "config.yml"))
	e.DeployContract(t, tokenCtr, []interface{}{e.CommitteeHash, "UOA", 6})

	routerCtr := neotest.CompileFile(t, e.CommitteeHash, exchangePath, path.Join(exchangePath, "config.yml"))
	e.DeployContract(t, routerCtr, nil)

	bankCtr := neotest.CompileFile(t, e.CommitteeHash, bankPath, path.Join(bankPath, "config.yml"))

	e.DeployContractCheckFAULT(t, bankCtr,
		[]interface{}{e.CommitteeHash, tokenCtr.Hash, routerCtr.Hash, int64(0)},
		bankconst.ErrZeroAmount)
	e.DeployContractCheckFAULT(t, bankCtr,
		[]interface{}{[]byte{}, tokenCtr.Hash, routerCtr.Hash, startCeiling},
		bankconst.ErrZeroAddress)
	e.DeployContractCheckFAULT(t, bankCtr,
		[]interface{}{e.CommitteeHash, []byte{1, 2, 3}, routerCtr.Hash, startCeiling},
		bankconst.ErrInvalidToken)

	e.DeployContract(t, bankCtr, []interface{}{e.CommitteeHash, tokenCtr.Hash, routerCtr.Hash, startCeiling})

	c := e.CommitteeInvoker(bankCtr.Hash)
	c.Invoke(t, common.Version, "version")
	c.Invoke(t, stackitem.NewBuffer(tokenCtr.Hash.BytesBE()), "token")
	c.Invoke(t, stackitem.NewBuffer(routerCtr.Hash.BytesBE()), "exchange")
	c.Invoke(t, stackitem.NewBuffer(e.CommitteeHash.BytesBE()), "owner")
	c.Invoke(t, startCeiling, "capacityCeiling")
	c.Invoke(t, startCeiling, "availableCapacity")
	c.Invoke(t, int64(0), "totalDeposited")
}

func TestBankDeposit(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 2_000_000)

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "deposit", acc.ScriptHash(), int64(0))
	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "deposit", acc.ScriptHash(), int64(-100))

	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(600_000))
	env.bank.Invoke(t, int64(600_000), "balanceOf", acc.ScriptHash())
	env.bank.Invoke(t, startCeiling-600_000, "availableCapacity")
	env.checkLedger(t, 600_000)

	// The tokens have actually moved into the contract account.
	env.unit.Invoke(t, int64(1_400_000), "balanceOf", acc.ScriptHash())
	env.unit.Invoke(t, int64(600_000), "balanceOf", env.bankHash)

	// A depositor cannot spend somebody else's assets.
	other := env.NewAccount(t)
	env.bank.WithSigners(other).InvokeFail(t, common.ErrOwnerWitnessFailed,
		"deposit", acc.ScriptHash(), int64(100))
}

func TestBankCapacityScenario(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	accA, cAccA := env.newDepositor(t, 1_000_000)
	accB, cAccB := env.newDepositor(t, 1_000_000)

	cAccA.Invoke(t, stackitem.Null{}, "deposit", accA.ScriptHash(), int64(999_000))
	env.checkLedger(t, 999_000)

	cAccB.InvokeFail(t, bankconst.ErrCapacityExceeded, "deposit", accB.ScriptHash(), int64(2_000))

	// The failed attempt left no trace.
	env.bank.Invoke(t, int64(0), "balanceOf", accB.ScriptHash())
	env.checkLedger(t, 999_000)

	cAccB.Invoke(t, stackitem.Null{}, "deposit", accB.ScriptHash(), int64(1_000))
	env.checkLedger(t, 1_000_000)
	env.bank.Invoke(t, int64(0), "availableCapacity")
}

func TestBankWithdraw(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 1_000)

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "withdraw", acc.ScriptHash(), int64(0))

	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(1_000))
	cAcc.Invoke(t, stackitem.Null{}, "withdraw", acc.ScriptHash(), int64(300))

	env.bank.Invoke(t, int64(700), "balanceOf", acc.ScriptHash())
	env.unit.Invoke(t, int64(300), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 700)

	cAcc.InvokeFail(t, bankconst.ErrInsufficientBalance, "withdraw", acc.ScriptHash(), int64(800))
	env.bank.Invoke(t, int64(700), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 700)

	cAcc.Invoke(t, stackitem.Null{}, "withdraw", acc.ScriptHash(), int64(700))
	env.bank.Invoke(t, int64(0), "balanceOf", acc.ScriptHash())
	env.unit.Invoke(t, int64(1_000), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 0)

	// The account entry persists at zero.
	require.Equal(t, 1, ledgerEntries(t, env.bank))
}

func TestBankWithdrawAll(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 5_000)

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "withdrawAll", acc.ScriptHash())

	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(5_000))
	cAcc.Invoke(t, stackitem.Null{}, "withdraw", acc.ScriptHash(), int64(1_250))
	cAcc.Invoke(t, stackitem.Null{}, "withdrawAll", acc.ScriptHash())

	env.bank.Invoke(t, int64(0), "balanceOf", acc.ScriptHash())
	env.unit.Invoke(t, int64(5_000), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 0)

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "withdrawAll", acc.ScriptHash())
}

func TestBankLedgerSum(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	accA, cAccA := env.newDepositor(t, 10_000)
	accB, cAccB := env.newDepositor(t, 10_000)

	cAccA.Invoke(t, stackitem.Null{}, "deposit", accA.ScriptHash(), int64(4_000))
	env.checkLedger(t, 4_000)

	cAccB.Invoke(t, stackitem.Null{}, "deposit", accB.ScriptHash(), int64(2_500))
	env.checkLedger(t, 6_500)

	cAccA.Invoke(t, stackitem.Null{}, "withdraw", accA.ScriptHash(), int64(1_500))
	env.checkLedger(t, 5_000)

	cAccB.Invoke(t, stackitem.Null{}, "withdrawAll", accB.ScriptHash())
	env.checkLedger(t, 2_500)
	require.Equal(t, 2, ledgerEntries(t, env.bank))
}

func TestBankUpdateCapacity(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 1_000_000)

	notOwner := env.NewAccount(t)
	env.bank.WithSigners(notOwner).InvokeFail(t, common.ErrOwnerWitnessFailed,
		"updateCapacity", int64(500_000))
	env.bank.InvokeFail(t, bankconst.ErrZeroAmount, "updateCapacity", int64(0))

	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(500_000))

	// Reduction below the current total is allowed and only blocks
	// further deposits.
	env.bank.Invoke(t, stackitem.Null{}, "updateCapacity", int64(400_000))
	env.bank.Invoke(t, int64(400_000), "capacityCeiling")

	cAcc.InvokeFail(t, bankconst.ErrCapacityExceeded, "deposit", acc.ScriptHash(), int64(1))

	cAcc.Invoke(t, stackitem.Null{}, "withdraw", acc.ScriptHash(), int64(200_000))
	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(50_000))
	env.checkLedger(t, 350_000)
}

func TestBankTransferOwnership(t *testing.T) {
	env := newBankEnv(t, startCeiling)

	newOwner := env.NewAccount(t)

	env.bank.InvokeFail(t, bankconst.ErrZeroAddress, "transferOwnership", []byte{})
	env.bank.WithSigners(newOwner).InvokeFail(t, common.ErrOwnerWitnessFailed,
		"transferOwnership", newOwner.ScriptHash())

	env.bank.Invoke(t, stackitem.Null{}, "transferOwnership", newOwner.ScriptHash())
	env.bank.Invoke(t, stackitem.NewBuffer(newOwner.ScriptHash().BytesBE()), "owner")

	// The previous owner has lost its rights, the new one has them.
	env.bank.InvokeFail(t, common.ErrOwnerWitnessFailed, "updateCapacity", int64(500_000))
	env.bank.WithSigners(newOwner).Invoke(t, stackitem.Null{}, "updateCapacity", int64(500_000))
}

func TestBankDepositForeign(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 0)
	env.foreign.Invoke(t, stackitem.Null{}, "mint", acc.ScriptHash(), int64(1_000_000))

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "depositForeign",
		acc.ScriptHash(), env.foreignHash, int64(0))
	cAcc.InvokeFail(t, bankconst.ErrInvalidToken, "depositForeign",
		acc.ScriptHash(), env.unitHash, int64(1_000))

	env.router.Invoke(t, stackitem.Null{}, "setRate", int64(2), int64(1))

	cAcc.Invoke(t, stackitem.Null{}, "depositForeign", acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.bank.Invoke(t, int64(20_000), "balanceOf", acc.ScriptHash())
	env.foreign.Invoke(t, int64(10_000), "balanceOf", env.routerHash)
	env.checkLedger(t, 20_000)

	// The realized output above the acceptable minimum is credited as-is,
	// not clipped to the quote-derived minimum.
	env.router.Invoke(t, stackitem.Null{}, "setRealizedRate", int64(199), int64(100))
	cAcc.Invoke(t, stackitem.Null{}, "depositForeign", acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.bank.Invoke(t, int64(39_900), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 39_900)

	// More than 1% below the quote is not accepted.
	env.router.Invoke(t, stackitem.Null{}, "setRealizedRate", int64(196), int64(100))
	cAcc.InvokeFail(t, exchange.ErrInsufficientOutput, "depositForeign",
		acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.checkLedger(t, 39_900)

	// A router missing the 5 minute window fails the whole deposit.
	env.router.Invoke(t, stackitem.Null{}, "setRealizedRate", int64(200), int64(100))
	env.router.Invoke(t, stackitem.Null{}, "setClockSkew", int64(bankconst.SwapDeadlineMs+1))
	cAcc.InvokeFail(t, exchange.ErrDeadlineExceeded, "depositForeign",
		acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.checkLedger(t, 39_900)

	// The withdrawal of converted deposits is paid in the unit token.
	env.router.Invoke(t, stackitem.Null{}, "setClockSkew", int64(0))
	cAcc.Invoke(t, stackitem.Null{}, "withdrawAll", acc.ScriptHash())
	env.unit.Invoke(t, int64(39_900), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 0)
}

func TestBankDepositNative(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 0)

	gasHash, err := env.Chain.GetNativeContractScriptHash(nativenames.Gas)
	require.NoError(t, err)

	cAcc.InvokeFail(t, bankconst.ErrZeroAmount, "depositNative", acc.ScriptHash(), int64(0))

	cAcc.Invoke(t, stackitem.Null{}, "depositNative", acc.ScriptHash(), int64(50_000))
	env.bank.Invoke(t, int64(50_000), "balanceOf", acc.ScriptHash())
	env.checkLedger(t, 50_000)

	// The pulled GAS has been forwarded to the router.
	env.CommitteeInvoker(gasHash).Invoke(t, int64(50_000), "balanceOf", env.routerHash)
}

func TestBankCapacityOvershootBySlippage(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 990_000)
	env.foreign.Invoke(t, stackitem.Null{}, "mint", acc.ScriptHash(), int64(100_000))

	cAcc.Invoke(t, stackitem.Null{}, "deposit", acc.ScriptHash(), int64(990_000))

	// The capacity pre-check uses the minimum acceptable output (99% of
	// the quote), while the realized output is credited in full. 9_999
	// still fits under the ceiling, the realized 10_100 does not, and the
	// deposit is accepted anyway.
	cAcc.Invoke(t, stackitem.Null{}, "depositForeign", acc.ScriptHash(), env.foreignHash, int64(10_100))

	env.checkLedger(t, 1_000_100)
	env.bank.Invoke(t, int64(-100), "availableCapacity")

	// Regular deposits stay blocked until the total is withdrawn below
	// the ceiling again.
	cAcc.InvokeFail(t, bankconst.ErrCapacityExceeded, "deposit", acc.ScriptHash(), int64(1))
}

func TestBankReentrancy(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, cAcc := env.newDepositor(t, 0)
	env.foreign.Invoke(t, stackitem.Null{}, "mint", acc.ScriptHash(), int64(10_000))

	env.router.Invoke(t, stackitem.Null{}, "setReentry", true)

	cAcc.InvokeFail(t, bankconst.ErrReentrantCall, "depositForeign",
		acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.checkLedger(t, 0)

	env.router.Invoke(t, stackitem.Null{}, "setReentry", false)
	cAcc.Invoke(t, stackitem.Null{}, "depositForeign", acc.ScriptHash(), env.foreignHash, int64(10_000))
	env.checkLedger(t, 10_000)
}

func TestBankUnsolicitedTransfer(t *testing.T) {
	env := newBankEnv(t, startCeiling)
	acc, _ := env.newDepositor(t, 1_000)

	env.unit.WithSigners(acc).InvokeFail(t, bankconst.ErrUnsolicitedTransfer,
		"transfer", acc.ScriptHash(), env.bankHash, int64(1_000), nil)

	gasHash, err := env.Chain.GetNativeContractScriptHash(nativenames.Gas)
	require.NoError(t, err)
	env.CommitteeInvoker(gasHash).WithSigners(acc).InvokeFail(t, bankconst.ErrUnsolicitedTransfer,
		"transfer", acc.ScriptHash(), env.bankHash, int64(1_000), nil)

	env.checkLedger(t, 0)
	env.unit.Invoke(t, int64(1_000), "balanceOf", acc.ScriptHash())
}

func TestBankEstimateConversion(t *testing.T) {
	env := newBankEnv(t, startCeiling)

	env.router.Invoke(t, stackitem.Null{}, "setRate", int64(3), int64(1))

	env.bank.Invoke(t, int64(30_000), "estimateConversion", env.foreignHash, int64(10_000))
	env.bank.InvokeFail(t, bankconst.ErrInvalidToken, "estimateConversion", env.unitHash, int64(10_000))

	// The estimate carries no slippage adjustment even though deposits do.
	env.router.Invoke(t, stackitem.Null{}, "setRealizedRate", int64(297), int64(100))
	env.bank.Invoke(t, int64(30_000), "estimateConversion", env.foreignHash, int64(10_000))
}
