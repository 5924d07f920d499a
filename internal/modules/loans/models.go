package loans

import (
	"strings"

	"github.com/finbase/corebank/pkg/money"
)

// LoanType selects the base interest rate
type LoanType string

const (
	LoanPersonalHome     LoanType = "personal-home"
	LoanAuto             LoanType = "auto"
	LoanBusiness         LoanType = "business"
	LoanJointMortgage    LoanType = "joint-mortgage"
	LoanSecuredOverdraft LoanType = "secured-overdraft"
	LoanHealthFinance    LoanType = "health-finance"
	LoanOther            LoanType = "other"
)

// LoanTypeFromString normalises a loan type string; unknown values fall
// through to the default rate rather than erroring, matching how the
// product treats free-form loan purposes.
func LoanTypeFromString(value string) LoanType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "personal-home":
		return LoanPersonalHome
	case "auto":
		return LoanAuto
	case "business":
		return LoanBusiness
	case "joint-mortgage":
		return LoanJointMortgage
	case "secured-overdraft":
		return LoanSecuredOverdraft
	case "health-finance":
		return LoanHealthFinance
	default:
		return LoanOther
	}
}

// Quote is an ephemeral loan offer. It is derived, recomputed whenever
// inputs change, and not persisted; the approval workflow that would
// persist an application lives elsewhere. Principal and monthly payment
// are minor units; the rate is annual basis points (700 = 7.00%).
type Quote struct {
	LoanType       LoanType `json:"loan_type"`
	Principal      int64    `json:"principal"`
	DurationMonths int      `json:"duration_months"`
	AnnualRateBP   int64    `json:"annual_rate_bp"`
	MonthlyPayment int64    `json:"monthly_payment"`
}

// AnnualRatePercent renders the rate for display, e.g. "7.00"
func (q Quote) AnnualRatePercent() string {
	return money.FormatBasisPoints(q.AnnualRateBP)
}
