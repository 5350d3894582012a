package debt

import (
	"time"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/customers"
)

// SourceType tags which population a debt record came from.
type SourceType string

const (
	// SourceTraditional is the legacy loan-contract population.
	SourceTraditional SourceType = "traditional"
	// SourceInstallment is the installment-contract-derived population.
	SourceInstallment SourceType = "installment_contract"
)

// IDPrefix returns the integrated-ID prefix for the source.
func (s SourceType) IDPrefix() string {
	if s == SourceInstallment {
		return "inst_"
	}
	return "trad_"
}

// DebtRecord is a derived projection of Contract + Payment + Criteria. It is
// recomputable at any time and never a source of truth.
type DebtRecord struct {
	IntegratedID string     `json:"integratedId"`
	SourceID     int64      `json:"originalId"`
	SourceType   SourceType `json:"sourceType"`

	ContractNo string            `json:"contractNo"`
	Customer   customers.Display `json:"customer"`

	TotalAmount   float64 `json:"totalAmount"`
	PaidAmount    float64 `json:"paidAmount"`
	OverdueAmount float64 `json:"overdueAmount"`
	DaysOverdue   int     `json:"daysOverdue"`

	DueDate         *time.Time `json:"dueDate,omitempty"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	NextDueDate     *time.Time `json:"nextDueDate,omitempty"`

	MonthlyPayment   float64 `json:"monthlyPayment"`
	InstallmentCount int     `json:"installmentCount"`
	PaymentCount     int     `json:"paymentCount"`

	BranchCode string                   `json:"branchCode"`
	Status     contracts.ContractStatus `json:"status"`

	RiskLevel       RiskLevel         `json:"riskLevel"`
	Category        ProvisionCategory `json:"category"`
	BadDebtCategory string            `json:"badDebtCategory"`
	DebtStatus      string            `json:"debtStatus"`
	Recommendations []string          `json:"recommendations,omitempty"`
	AllowanceAmount float64           `json:"allowanceAmount"`
	RiskScore       float64           `json:"riskScore"`

	ProgressPercent       int `json:"progressPercentage"`
	RemainingInstallments int `json:"remainingInstallments"`

	// AnomalyNote flags data-quality oddities (for example a zero total with
	// payments recorded) without failing the record.
	AnomalyNote string `json:"anomalyNote,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// RiskDistribution counts records per operational risk level.
type RiskDistribution map[RiskLevel]int

// Distribution tallies the merged page the way the collections UI expects:
// only the four overdue levels, normal records excluded.
func Distribution(records []DebtRecord) RiskDistribution {
	dist := RiskDistribution{
		RiskLow:    0,
		RiskMedium: 0,
		RiskHigh:   0,
		RiskSevere: 0,
	}
	for _, rec := range records {
		if _, ok := dist[rec.RiskLevel]; ok {
			dist[rec.RiskLevel]++
		}
	}
	return dist
}
