package debt

import (
	"fmt"
	"sort"
)

// SplitLimit divides one requested page size across the two source
// populations, computed before either source is queried. The traditional
// source takes the floor half, the installment source the ceil half, so the
// halves always sum back to the requested limit.
func SplitLimit(limit int) (traditional, installment int) {
	if limit <= 0 {
		return 0, 0
	}
	traditional = limit / 2
	installment = limit - traditional
	return traditional, installment
}

// MergeSort enumerates the sortable fields of a merged list.
type MergeSort string

const (
	SortByOverdueAmount MergeSort = "overdueAmount"
	SortByDaysOverdue   MergeSort = "daysOverdue"
	SortByTotalAmount   MergeSort = "totalAmount"
	SortByRiskScore     MergeSort = "riskScore"
)

func sortKey(rec DebtRecord, by MergeSort) float64 {
	switch by {
	case SortByDaysOverdue:
		return float64(rec.DaysOverdue)
	case SortByTotalAmount:
		return rec.TotalAmount
	case SortByRiskScore:
		return rec.RiskScore
	default:
		return rec.OverdueAmount
	}
}

// PageSummary is computed over the merged page, not the full population. The
// full-population numbers live on the statistics endpoint instead.
type PageSummary struct {
	TotalContracts     int              `json:"totalContracts"`
	TotalOverdueAmount float64          `json:"totalOverdueAmount"`
	RiskDistribution   RiskDistribution `json:"riskDistribution"`
}

// MergedPage is one page of the cross-system debt list.
type MergedPage struct {
	Records []DebtRecord `json:"data"`
	Summary PageSummary  `json:"summary"`
	// Degraded is set when the installment source failed and its segment
	// was substituted with an empty slice.
	Degraded bool `json:"degraded,omitempty"`
}

// MergeSources combines the pre-sliced segments of both populations into one
// ranked page. Each record gets a source-prefixed integrated ID so the two
// key spaces cannot collide. The concatenation is sorted descending by the
// requested field with ties kept in insertion order; the result is the page
// as-is. Because each source was sliced before the merge, page boundaries
// across sources are only approximately rank-correct, which callers accept
// in exchange for never scanning both populations in full.
func MergeSources(traditional, installment []DebtRecord, by MergeSort) []DebtRecord {
	merged := make([]DebtRecord, 0, len(traditional)+len(installment))
	for _, rec := range traditional {
		rec.SourceType = SourceTraditional
		rec.IntegratedID = IntegratedID(SourceTraditional, rec.SourceID)
		merged = append(merged, rec)
	}
	for _, rec := range installment {
		rec.SourceType = SourceInstallment
		rec.IntegratedID = IntegratedID(SourceInstallment, rec.SourceID)
		merged = append(merged, rec)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return sortKey(merged[i], by) > sortKey(merged[j], by)
	})
	return merged
}

// IntegratedID builds the combined-view identifier for a source record.
func IntegratedID(source SourceType, id int64) string {
	return fmt.Sprintf("%s%d", source.IDPrefix(), id)
}

// Summarize computes the page-scoped summary of a merged record list.
func Summarize(records []DebtRecord) PageSummary {
	s := PageSummary{
		TotalContracts:   len(records),
		RiskDistribution: Distribution(records),
	}
	for _, rec := range records {
		s.TotalOverdueAmount += rec.OverdueAmount
	}
	return s
}
