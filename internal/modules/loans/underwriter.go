// Package loans computes loan quotes: interest rate from the product
// rate table and the amortized monthly payment. It holds no mutable
// state; disbursement happens elsewhere, after approval.
package loans

import (
	"errors"
	"math"

	"github.com/finbase/corebank/pkg/money"
)

// Quote input errors
var (
	ErrInvalidPrincipal = errors.New("principal must be positive")
	ErrInvalidDuration  = errors.New("duration must be a positive number of months")
)

// Base annual rates in basis points, by loan type.
var baseRateBP = map[LoanType]int64{
	LoanPersonalHome:     350,
	LoanAuto:             450,
	LoanBusiness:         600,
	LoanJointMortgage:    300,
	LoanSecuredOverdraft: 700,
	LoanHealthFinance:    550,
	LoanOther:            500,
}

// Rate adjustment thresholds. Each one adds 50 bp, cumulatively.
const (
	largePrincipal     = 100_000_00 // $100,000 in minor units
	veryLargePrincipal = 500_000_00 // $500,000
	longDurationMonths = 60
	adjustmentBP       = 50
)

// AnnualRateBP derives the annual rate for a loan: base table lookup
// plus cumulative additive adjustments for large principals and long
// durations.
func AnnualRateBP(loanType LoanType, principal int64, durationMonths int) int64 {
	rate, ok := baseRateBP[loanType]
	if !ok {
		rate = baseRateBP[LoanOther]
	}

	if principal > largePrincipal {
		rate += adjustmentBP
	}
	if principal > veryLargePrincipal {
		rate += adjustmentBP
	}
	if durationMonths > longDurationMonths {
		rate += adjustmentBP
	}

	return rate
}

// NewQuote computes a loan quote for the given parameters. Pure: same
// inputs always produce the same quote.
func NewQuote(loanType LoanType, principal int64, durationMonths int) (*Quote, error) {
	if principal <= 0 {
		return nil, ErrInvalidPrincipal
	}
	if durationMonths <= 0 {
		return nil, ErrInvalidDuration
	}

	rateBP := AnnualRateBP(loanType, principal, durationMonths)

	return &Quote{
		LoanType:       loanType,
		Principal:      principal,
		DurationMonths: durationMonths,
		AnnualRateBP:   rateBP,
		MonthlyPayment: monthlyPayment(principal, rateBP, durationMonths),
	}, nil
}

// monthlyPayment computes the standard amortization payment in minor
// units, rounded half-to-even.
//
//	r = annual rate / 12
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// The power term uses math.Pow, which keeps full float64 precision for
// terms up to 360 months; only the final cent value is rounded.
func monthlyPayment(principal, annualRateBP int64, durationMonths int) int64 {
	if annualRateBP == 0 {
		return money.DivRoundHalfEven(principal, int64(durationMonths))
	}

	r := float64(annualRateBP) / 10000.0 / 12.0
	factor := math.Pow(1.0+r, float64(durationMonths))
	payment := float64(principal) * r * factor / (factor - 1.0)

	return int64(math.RoundToEven(payment))
}
