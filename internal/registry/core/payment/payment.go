package payment

import (
	"fmt"
	"math/big"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Gas overhead model, in gas units.
const (
	ConditionalOverhead       = 90_000
	LogOverhead               = 110_000
	PerSignerOverhead         = 7_500
	PerPerformByteOverhead    = 20
	BatchFixedOverhead        = 27_500
	PerTaskAccountingOverhead = 1_100
	PerItemValidationOverhead = 5_000
	PerReportByteOverhead     = 16
)

var (
	premiumBase  = big.NewInt(1_000_000_000)
	microFactor  = big.NewInt(1_000_000_000_000)
	divisibility = big.NewInt(1_000_000_000_000_000_000)
)

// Params are the prices and measured gas of one execution.
type Params struct {
	FastGasWei *big.Int
	LinkNative *big.Int
	// TxGasPrice is the price the transmitter actually paid. Nil or zero means unknown.
	TxGasPrice  *big.Int
	GasUsed     uint64
	GasOverhead uint64
}

// Breakdown is a payment split into its reimbursement and premium parts.
type Breakdown struct {
	GasPayment *big.Int
	Premium    *big.Int
	Total      *big.Int
}

func (b Breakdown) Payment() *types.Payment {
	return &types.Payment{GasPayment: types.CloneInt(b.GasPayment), Premium: types.CloneInt(b.Premium)}
}

// Calculator prices executions under one active configuration.
type Calculator struct {
	cfg types.OnchainConfig
	f   uint8
}

func NewCalculator(cfg types.Config) *Calculator {
	return &Calculator{cfg: cfg.Onchain.Clone(), f: cfg.F}
}

// F is the fault tolerance of the configuration the calculator prices under.
func (c *Calculator) F() uint8 {
	return c.f
}

// Calculate returns the payment owed for an execution. The reimbursed gas price is
// capped at GasCeilingMultiplier times the reported price and at the transmitter's
// own price; the premium is always computed from the reported price.
func (c *Calculator) Calculate(p Params) (Breakdown, error) {
	if p.LinkNative == nil || p.LinkNative.Sign() <= 0 {
		return Breakdown{}, fmt.Errorf("%w: credit price must be positive", regerrors.ErrInvalidReport)
	}
	fastGas := types.CloneInt(p.FastGasWei)

	gasWei := new(big.Int).Mul(fastGas, big.NewInt(int64(c.cfg.GasCeilingMultiplier)))
	if p.TxGasPrice != nil && p.TxGasPrice.Sign() > 0 && p.TxGasPrice.Cmp(gasWei) < 0 {
		gasWei = new(big.Int).Set(p.TxGasPrice)
	}

	gas := new(big.Int).SetUint64(p.GasUsed)
	gas.Add(gas, new(big.Int).SetUint64(p.GasOverhead))
	gasPayment := new(big.Int).Mul(gasWei, gas)
	gasPayment.Mul(gasPayment, divisibility)
	gasPayment.Div(gasPayment, p.LinkNative)

	premium := new(big.Int).Mul(fastGas, new(big.Int).SetUint64(p.GasUsed))
	premium.Mul(premium, divisibility)
	premium.Div(premium, p.LinkNative)
	premium.Mul(premium, big.NewInt(int64(c.cfg.PaymentPremiumPPB)))
	premium.Div(premium, premiumBase)
	premium.Add(premium, new(big.Int).Mul(big.NewInt(int64(c.cfg.FlatFeeMicroLink)), microFactor))

	return Breakdown{
		GasPayment: gasPayment,
		Premium:    premium,
		Total:      new(big.Int).Add(gasPayment, premium),
	}, nil
}

// MaxPayment is the worst case payment of one execution spending its whole gas limit
// and the largest overhead its trigger type and perform data can be charged.
func (c *Calculator) MaxPayment(triggerType types.TriggerType, gasLimit uint32, performDataLen int, fastGasWei, linkNative, txGasPrice *big.Int) (Breakdown, error) {
	return c.Calculate(Params{
		FastGasWei:  fastGasWei,
		LinkNative:  linkNative,
		TxGasPrice:  txGasPrice,
		GasUsed:     uint64(gasLimit),
		GasOverhead: MaxGasOverhead(triggerType, performDataLen, c.f),
	})
}

// MaxGasOverhead caps the overhead a single execution can be charged.
func MaxGasOverhead(triggerType types.TriggerType, performDataLen int, f uint8) uint64 {
	base := uint64(ConditionalOverhead)
	if triggerType == types.LogTrigger {
		base = LogOverhead
	}
	return base + PerSignerOverhead*(uint64(f)+1) + PerPerformByteOverhead*uint64(performDataLen)
}

// BatchOverhead is the shared cost of verifying and dispatching a report of
// reportLen bytes carrying numItems items.
func BatchOverhead(reportLen, numItems int, f uint8) uint64 {
	return BatchFixedOverhead +
		PerReportByteOverhead*uint64(reportLen) +
		PerSignerOverhead*(uint64(f)+1) +
		PerItemValidationOverhead*uint64(numItems)
}

// ItemOverhead splits batchOverhead evenly across the numPerformed executions, adds
// the per task accounting cost, then applies the per item cap.
func ItemOverhead(batchOverhead uint64, numPerformed int, triggerType types.TriggerType, performDataLen int, f uint8) uint64 {
	if numPerformed <= 0 {
		return 0
	}
	share := batchOverhead/uint64(numPerformed) + PerTaskAccountingOverhead
	return min(share, MaxGasOverhead(triggerType, performDataLen, f))
}
