package debt

import "math"

// ProvisionCategory is the accounting scale driving allowance amounts. Its
// boundaries are coarser than the operational RiskLevel scale and the two are
// deliberately kept separate: finance provisions on one, collections
// prioritizes on the other.
type ProvisionCategory string

const (
	CategoryActive    ProvisionCategory = "active"
	CategoryAllowance ProvisionCategory = "allowance"
	CategoryDoubtful  ProvisionCategory = "doubtful"
	CategoryBadDebt   ProvisionCategory = "badDebt"
	CategoryCompleted ProvisionCategory = "completed"
)

// RiskLevel is the operational scale shown in collection lists and
// distribution summaries.
type RiskLevel string

const (
	RiskNormal RiskLevel = "ปกติ"
	RiskLow    RiskLevel = "ต่ำ"
	RiskMedium RiskLevel = "ปานกลาง"
	RiskHigh   RiskLevel = "สูง"
	RiskSevere RiskLevel = "สูงมาก"
)

// Classification is the combined output of both scales for one record.
type Classification struct {
	Category        ProvisionCategory
	RiskLevel       RiskLevel
	BadDebtCategory string
	DebtStatus      string
	AllowanceAmount float64
	RiskScore       float64
	Recommendations []string
}

// Classify derives every classification facet from an aging position and the
// active criteria. A settled balance forces completion regardless of aging.
func Classify(daysOverdue int, remaining float64, c Criteria) Classification {
	if remaining <= 0 {
		return Classification{
			Category:        CategoryCompleted,
			RiskLevel:       RiskNormal,
			BadDebtCategory: BadDebtCategoryLabel(0),
			DebtStatus:      "ชำระครบ",
			AllowanceAmount: 0,
			RiskScore:       0,
		}
	}
	cl := Classification{
		Category:        ProvisionCategoryFor(daysOverdue),
		RiskLevel:       RiskLevelFor(daysOverdue),
		BadDebtCategory: BadDebtCategoryLabel(daysOverdue),
		DebtStatus:      DebtStatusLabel(daysOverdue),
		AllowanceAmount: CalculateAllowance(daysOverdue, remaining, c),
		RiskScore:       RiskScore(remaining, daysOverdue),
	}
	cl.Recommendations = Recommendations(daysOverdue, remaining)
	return cl
}

// ProvisionCategoryFor maps days overdue onto the accounting scale.
// Boundaries are 0-30 / 31-90 / 91-180 / over 180.
func ProvisionCategoryFor(daysOverdue int) ProvisionCategory {
	switch {
	case daysOverdue <= 30:
		return CategoryActive
	case daysOverdue <= 90:
		return CategoryAllowance
	case daysOverdue <= 180:
		return CategoryDoubtful
	default:
		return CategoryBadDebt
	}
}

// RiskLevelFor maps days overdue onto the operational scale. Boundaries are
// 0-30 / 31-60 / 61-90 / 91-180 / over 180.
func RiskLevelFor(daysOverdue int) RiskLevel {
	switch {
	case daysOverdue <= 30:
		return RiskNormal
	case daysOverdue <= 60:
		return RiskLow
	case daysOverdue <= 90:
		return RiskMedium
	case daysOverdue <= 180:
		return RiskHigh
	default:
		return RiskSevere
	}
}

// DebtStatusLabel is the customer-facing aging label.
func DebtStatusLabel(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return "ปกติ"
	case daysOverdue <= 30:
		return "เริ่มค้างชำระ"
	case daysOverdue <= 60:
		return "ค้างชำระ"
	case daysOverdue <= 90:
		return "ค้างชำระรุนแรง"
	case daysOverdue <= 180:
		return "หนี้สงสัยจะสูญ"
	default:
		return "หนี้สูญ"
	}
}

// BadDebtCategoryLabel is the write-down review label used on the bad-debt
// screen.
func BadDebtCategoryLabel(daysOverdue int) string {
	switch {
	case daysOverdue <= 30:
		return "ปกติ"
	case daysOverdue <= 60:
		return "เฝ้าระวัง"
	case daysOverdue <= 90:
		return "ต้องติดตาม"
	case daysOverdue <= 180:
		return "หนี้สงสัย"
	default:
		return "หนี้สูญ"
	}
}

// RiskScore is a dimensionless collections-priority score combining exposure
// and aging, rounded to 2 decimals. 100k THB overdue for 30 days scores 1.0.
func RiskScore(overdueAmount float64, daysOverdue int) float64 {
	if overdueAmount <= 0 || daysOverdue <= 0 {
		return 0
	}
	score := (overdueAmount / 100000) * (float64(daysOverdue) / 30)
	return math.Round(score*100) / 100
}

// Recommendations returns the suggested collection actions for an overdue
// position. Empty for current contracts.
func Recommendations(daysOverdue int, remaining float64) []string {
	if daysOverdue <= 0 || remaining <= 0 {
		return nil
	}
	var recs []string
	switch {
	case daysOverdue <= 30:
		recs = append(recs, "โทรติดตามทวงถาม", "ส่ง SMS แจ้งเตือน")
	case daysOverdue <= 90:
		recs = append(recs, "ส่งหนังสือทวงถาม", "นัดหมายเจรจาปรับโครงสร้างหนี้")
	case daysOverdue <= 180:
		recs = append(recs, "ส่งหนังสือทวงถามครั้งสุดท้าย", "พิจารณายึดสินค้าคืน")
	default:
		recs = append(recs, "ดำเนินการทางกฎหมาย", "พิจารณาตัดหนี้สูญ")
	}
	if remaining >= 100000 {
		recs = append(recs, "เสนอผู้จัดการสาขาพิจารณาเป็นกรณีพิเศษ")
	}
	return recs
}
