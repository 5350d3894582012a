package debt

import (
	"strings"
	"testing"
)

func TestSplitLimit(t *testing.T) {
	cases := []struct {
		limit      int
		trad, inst int
	}{
		{20, 10, 10},
		{21, 10, 11},
		{1, 0, 1},
		{0, 0, 0},
		{-5, 0, 0},
	}
	for _, tc := range cases {
		trad, inst := SplitLimit(tc.limit)
		if trad != tc.trad || inst != tc.inst {
			t.Fatalf("limit %d: expected (%d,%d), got (%d,%d)", tc.limit, tc.trad, tc.inst, trad, inst)
		}
		if tc.limit > 0 && trad+inst != tc.limit {
			t.Fatalf("halves must sum to limit %d", tc.limit)
		}
	}
}

func TestMergeSourcesTagsAndSorts(t *testing.T) {
	traditional := []DebtRecord{
		{SourceID: 1, OverdueAmount: 500},
		{SourceID: 2, OverdueAmount: 9000},
	}
	installment := []DebtRecord{
		{SourceID: 1, OverdueAmount: 7000},
		{SourceID: 3, OverdueAmount: 100},
	}

	merged := MergeSources(traditional, installment, SortByOverdueAmount)
	if len(merged) != 4 {
		t.Fatalf("expected 4 records, got %d", len(merged))
	}

	// Descending by overdue amount.
	for i := 1; i < len(merged); i++ {
		if merged[i].OverdueAmount > merged[i-1].OverdueAmount {
			t.Fatalf("not sorted descending at %d", i)
		}
	}

	// Same source ID from both systems stays as two rows with distinct
	// integrated IDs.
	seen := map[string]bool{}
	for _, rec := range merged {
		if seen[rec.IntegratedID] {
			t.Fatalf("duplicate integrated id %s", rec.IntegratedID)
		}
		seen[rec.IntegratedID] = true
		switch rec.SourceType {
		case SourceTraditional:
			if !strings.HasPrefix(rec.IntegratedID, "trad_") {
				t.Fatalf("wrong prefix for %s", rec.IntegratedID)
			}
		case SourceInstallment:
			if !strings.HasPrefix(rec.IntegratedID, "inst_") {
				t.Fatalf("wrong prefix for %s", rec.IntegratedID)
			}
		default:
			t.Fatalf("missing source type on %s", rec.IntegratedID)
		}
	}
	if !seen["trad_1"] || !seen["inst_1"] {
		t.Fatal("expected both trad_1 and inst_1 in merged page")
	}
}

func TestMergeSourcesStableTies(t *testing.T) {
	traditional := []DebtRecord{
		{SourceID: 10, OverdueAmount: 1000},
		{SourceID: 11, OverdueAmount: 1000},
	}
	installment := []DebtRecord{
		{SourceID: 20, OverdueAmount: 1000},
	}
	merged := MergeSources(traditional, installment, SortByOverdueAmount)
	want := []string{"trad_10", "trad_11", "inst_20"}
	for i, id := range want {
		if merged[i].IntegratedID != id {
			t.Fatalf("tie order broken at %d: expected %s, got %s", i, id, merged[i].IntegratedID)
		}
	}
}

func TestMergeSourcesSortFields(t *testing.T) {
	traditional := []DebtRecord{{SourceID: 1, DaysOverdue: 10, OverdueAmount: 100}}
	installment := []DebtRecord{{SourceID: 2, DaysOverdue: 99, OverdueAmount: 1}}

	merged := MergeSources(traditional, installment, SortByDaysOverdue)
	if merged[0].IntegratedID != "inst_2" {
		t.Fatalf("expected daysOverdue sort, got %s first", merged[0].IntegratedID)
	}
}

func TestSummarize(t *testing.T) {
	records := []DebtRecord{
		{OverdueAmount: 1000, RiskLevel: RiskLow},
		{OverdueAmount: 2000, RiskLevel: RiskSevere},
		{OverdueAmount: 500, RiskLevel: RiskNormal},
	}
	s := Summarize(records)
	if s.TotalContracts != 3 {
		t.Fatalf("expected 3 contracts, got %d", s.TotalContracts)
	}
	if s.TotalOverdueAmount != 3500 {
		t.Fatalf("expected 3500, got %.2f", s.TotalOverdueAmount)
	}
	if s.RiskDistribution[RiskLow] != 1 || s.RiskDistribution[RiskSevere] != 1 {
		t.Fatalf("unexpected distribution %v", s.RiskDistribution)
	}
	if _, ok := s.RiskDistribution[RiskNormal]; ok {
		t.Fatal("normal records must not appear in the distribution")
	}
}
