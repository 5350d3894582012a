package debt

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/customers"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

// Source abstracts the two debt populations for the service.
type Source interface {
	ListTraditional(ctx context.Context, q SourceQuery, now time.Time) ([]SourceRow, error)
	CountTraditional(ctx context.Context, q SourceQuery, now time.Time) (int, error)
	ListInstallment(ctx context.Context, q SourceQuery, now time.Time) ([]SourceRow, error)
	CountInstallment(ctx context.Context, q SourceQuery, now time.Time) (int, error)
	MonthlyTrends(ctx context.Context, months int, now time.Time) ([]MonthlyCollection, error)
	CollectionTotals(ctx context.Context) (collected, book float64, err error)
}

// DegradationObserver counts installment-source failures the merger absorbed.
type DegradationObserver interface {
	ObserveSourceDegraded()
}

// Service coordinates the read pipeline: aging, classification, merging,
// bucketing, and report caching.
type Service struct {
	source   Source
	criteria *CriteriaStore
	cache    *Cache
	logger   *slog.Logger
	observer DegradationObserver

	// now is swappable so aging is deterministic in tests.
	now func() time.Time
}

// NewService wires the debt read pipeline.
func NewService(source Source, criteria *CriteriaStore, cache *Cache, logger *slog.Logger, observer DegradationObserver) *Service {
	return &Service{
		source:   source,
		criteria: criteria,
		cache:    cache,
		logger:   logger,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListFilter scopes the integrated debt list.
type ListFilter struct {
	Page           int       `validate:"gte=1"`
	Limit          int       `validate:"gte=1,lte=100"`
	Search         string    `validate:"max=120"`
	BranchCode     string    `validate:"max=16"`
	MinDaysOverdue int       `validate:"gte=0"`
	SortBy         MergeSort `validate:"oneof=overdueAmount daysOverdue totalAmount riskScore"`
}

// DefaultListFilter returns the filter applied when params are absent.
func DefaultListFilter() ListFilter {
	return ListFilter{Page: 1, Limit: 20, SortBy: SortByOverdueAmount}
}

// ListResult is the integrated list response body.
type ListResult struct {
	Records    []DebtRecord      `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
	Summary    PageSummary       `json:"summary"`
	Degraded   bool              `json:"degraded,omitempty"`
}

// IntegratedList produces one ranked page spanning both populations. Each
// source is queried with its own pre-sliced offset and its half of the page
// size. The installment source degrades to an empty segment on failure; the
// legacy source is load-bearing and its failure fails the request.
func (s *Service) IntegratedList(ctx context.Context, filter ListFilter) (*ListResult, error) {
	now := s.now()
	criteria := s.criteria.Current()
	tradLimit, instLimit := SplitLimit(filter.Limit)

	baseQuery := SourceQuery{
		Search:         filter.Search,
		BranchCode:     filter.BranchCode,
		MinDaysOverdue: filter.MinDaysOverdue,
	}

	tradQuery := baseQuery
	tradQuery.Offset = (filter.Page - 1) * tradLimit
	tradQuery.Limit = tradLimit
	instQuery := baseQuery
	instQuery.Offset = (filter.Page - 1) * instLimit
	instQuery.Limit = instLimit

	var (
		tradRows, instRows   []SourceRow
		tradCount, instCount int
		degraded             bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.source.ListTraditional(gctx, tradQuery, now)
		if err != nil {
			return err
		}
		tradRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.ListInstallment(gctx, instQuery, now)
		if err != nil {
			s.logger.Warn("installment source failed, returning degraded list", "error", err)
			if s.observer != nil {
				s.observer.ObserveSourceDegraded()
			}
			degraded = true
			return nil
		}
		instRows = rows
		return nil
	})
	g.Go(func() error {
		n, err := s.source.CountTraditional(gctx, baseQuery, now)
		if err != nil {
			return err
		}
		tradCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.source.CountInstallment(gctx, baseQuery, now)
		if err != nil {
			// Same population as the list segment; degrade, do not abort.
			return nil
		}
		instCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	traditional := s.buildRecords(tradRows, SourceTraditional, criteria, now)
	installment := s.buildRecords(instRows, SourceInstallment, criteria, now)
	merged := MergeSources(traditional, installment, filter.SortBy)

	return &ListResult{
		Records:    merged,
		Pagination: shared.NewPagination(filter.Page, filter.Limit, tradCount+instCount),
		Summary:    Summarize(merged),
		Degraded:   degraded,
	}, nil
}

// AgedAnalysis bucketizes the full installment population for one branch
// scope. Results are cached per branch and day under the shared version.
func (s *Service) AgedAnalysis(ctx context.Context, branchCode string) (*AgingReport, error) {
	now := s.now()
	loader := func(ctx context.Context) (interface{}, error) {
		records, err := s.loadInstallmentPopulation(ctx, branchCode, now)
		if err != nil {
			return nil, err
		}
		report := AggregateBuckets(records)
		return &report, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.(*AgingReport), nil
	}

	key, err := s.cache.BuildKey(ctx, keyAgedAnalysis(branchCode, now))
	if err != nil {
		return nil, err
	}
	var report AgingReport
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		return nil, err
	}
	return &report, nil
}

// Statistics is the dashboard aggregate over the installment book.
type Statistics struct {
	TotalContracts     int                       `json:"totalContracts"`
	TotalOverdueAmount float64                   `json:"totalOverdueAmount"`
	TotalAllowance     float64                   `json:"totalAllowance"`
	BadDebtAmount      float64                   `json:"badDebtAmount"`
	BadDebtRatio       float64                   `json:"badDebtRatio"`
	CollectionRate     float64                   `json:"collectionRate"`
	RiskDistribution   RiskDistribution          `json:"riskDistribution"`
	CategoryTotals     map[ProvisionCategory]int `json:"categoryTotals"`
	Periods            []AgingPeriod             `json:"periods"`
	TopDebtors         []DebtRecord              `json:"topDebtors"`
	MonthlyTrends      []MonthlyCollection       `json:"monthlyTrends"`
}

const (
	topDebtorLimit = 10
	trendMonths    = 12
)

// GetStatistics assembles the dashboard aggregate. The independent inputs
// (population scan, trend series, collection totals) run concurrently and the
// first fatal failure wins. Cached per branch and day.
func (s *Service) GetStatistics(ctx context.Context, branchCode string) (*Statistics, error) {
	now := s.now()
	loader := func(ctx context.Context) (interface{}, error) {
		var (
			records         []DebtRecord
			trends          []MonthlyCollection
			collected, book float64
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			records, err = s.loadInstallmentPopulation(gctx, branchCode, now)
			return err
		})
		g.Go(func() error {
			var err error
			trends, err = s.source.MonthlyTrends(gctx, trendMonths, now)
			return err
		})
		g.Go(func() error {
			var err error
			collected, book, err = s.source.CollectionTotals(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return buildStatistics(records, trends, collected, book), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.(*Statistics), nil
	}

	key, err := s.cache.BuildKey(ctx, keyStatistics(branchCode, now))
	if err != nil {
		return nil, err
	}
	var stats Statistics
	if err := s.cache.FetchJSON(ctx, key, &stats, loader); err != nil {
		return nil, err
	}
	return &stats, nil
}

func buildStatistics(records []DebtRecord, trends []MonthlyCollection, collected, book float64) *Statistics {
	stats := &Statistics{
		TotalContracts:   len(records),
		RiskDistribution: Distribution(records),
		CategoryTotals:   make(map[ProvisionCategory]int),
		MonthlyTrends:    trends,
	}
	for _, rec := range records {
		stats.TotalOverdueAmount += rec.OverdueAmount
		stats.TotalAllowance += rec.AllowanceAmount
		stats.CategoryTotals[rec.Category]++
		if rec.Category == CategoryBadDebt {
			stats.BadDebtAmount += rec.OverdueAmount
		}
	}
	if book > 0 {
		stats.CollectionRate = collected / book * 100
		stats.BadDebtRatio = stats.BadDebtAmount / book * 100
	}

	report := AggregateBuckets(records)
	for i := range report.Periods {
		report.Periods[i].Contracts = nil
	}
	stats.Periods = report.Periods
	stats.TopDebtors = topDebtors(records, topDebtorLimit)
	return stats
}

// topDebtors ranks by overdue amount descending, ties ordered by customer
// name under Thai collation so the board report lists stable Thai ordering.
func topDebtors(records []DebtRecord, limit int) []DebtRecord {
	ranked := make([]DebtRecord, len(records))
	copy(ranked, records)
	thai := collate.New(language.Thai)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].OverdueAmount != ranked[j].OverdueAmount {
			return ranked[i].OverdueAmount > ranked[j].OverdueAmount
		}
		return thai.CompareString(ranked[i].Customer.Name, ranked[j].Customer.Name) < 0
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ExportRows returns the full filtered merged population for CSV export,
// both sources unbounded and ranked by overdue amount.
func (s *Service) ExportRows(ctx context.Context, filter ListFilter) ([]DebtRecord, error) {
	now := s.now()
	criteria := s.criteria.Current()
	query := SourceQuery{
		Search:         filter.Search,
		BranchCode:     filter.BranchCode,
		MinDaysOverdue: filter.MinDaysOverdue,
	}

	var tradRows, instRows []SourceRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.source.ListTraditional(gctx, query, now)
		if err != nil {
			return err
		}
		tradRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.ListInstallment(gctx, query, now)
		if err != nil {
			return err
		}
		instRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	traditional := s.buildRecords(tradRows, SourceTraditional, criteria, now)
	installment := s.buildRecords(instRows, SourceInstallment, criteria, now)
	return MergeSources(traditional, installment, SortByOverdueAmount), nil
}

// Criteria returns the active provisioning policy.
func (s *Service) Criteria() Criteria {
	return s.criteria.Current()
}

// UpdateCriteria records a new policy row and invalidates cached reports.
func (s *Service) UpdateCriteria(ctx context.Context, c Criteria) (Criteria, error) {
	stored, err := s.criteria.Update(ctx, c)
	if err != nil {
		return Criteria{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed after criteria update", "error", err)
	}
	return stored, nil
}

// CriteriaHistory lists recent policy rows, newest first.
func (s *Service) CriteriaHistory(ctx context.Context, limit int) ([]Criteria, error) {
	return s.criteria.History(ctx, limit)
}

// InvalidateReports bumps the cache version. Reconciliation calls this after
// persisting contract state.
func (s *Service) InvalidateReports(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) loadInstallmentPopulation(ctx context.Context, branchCode string, now time.Time) ([]DebtRecord, error) {
	rows, err := s.source.ListInstallment(ctx, SourceQuery{BranchCode: branchCode}, now)
	if err != nil {
		return nil, err
	}
	return s.buildRecords(rows, SourceInstallment, s.criteria.Current(), now), nil
}

// buildRecords runs aging and classification over raw source rows.
func (s *Service) buildRecords(rows []SourceRow, source SourceType, criteria Criteria, now time.Time) []DebtRecord {
	records := make([]DebtRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, buildRecord(row, source, criteria, now))
	}
	return records
}

func buildRecord(row SourceRow, source SourceType, criteria Criteria, now time.Time) DebtRecord {
	aging := ComputeAging(row.TotalAmount, row.PaidAmount, row.DueDate, now)
	remaining := row.TotalAmount - row.PaidAmount
	if remaining < 0 {
		remaining = 0
	}
	cl := Classify(aging.DaysOverdue, remaining, criteria)

	rec := DebtRecord{
		SourceID:              row.ID,
		SourceType:            source,
		IntegratedID:          IntegratedID(source, row.ID),
		ContractNo:            row.ContractNo,
		Customer:              displayFor(row, source),
		TotalAmount:           row.TotalAmount,
		PaidAmount:            row.PaidAmount,
		OverdueAmount:         aging.OverdueAmount,
		DaysOverdue:           aging.DaysOverdue,
		DueDate:               row.DueDate,
		LastPaymentDate:       row.LastPaymentDate,
		MonthlyPayment:        row.MonthlyPayment,
		InstallmentCount:      row.InstallmentCount,
		PaymentCount:          row.PaymentCount,
		BranchCode:            row.BranchCode,
		Status:                contracts.ContractStatus(row.Status),
		RiskLevel:             cl.RiskLevel,
		Category:              cl.Category,
		BadDebtCategory:       cl.BadDebtCategory,
		DebtStatus:            cl.DebtStatus,
		Recommendations:       cl.Recommendations,
		AllowanceAmount:       cl.AllowanceAmount,
		RiskScore:             cl.RiskScore,
		ProgressPercent:       progressPercent(row.TotalAmount, row.PaidAmount),
		RemainingInstallments: remainingInstallments(row, remaining),
		AnomalyNote:           aging.AnomalyNote,
		CreatedAt:             row.CreatedAt,
	}
	rec.NextDueDate = projectNextDue(row)
	return rec
}

func displayFor(row SourceRow, source SourceType) customers.Display {
	if source == SourceTraditional {
		return customers.DisplayFromSnapshot(row.CustomerName, row.CustomerPhone, row.CustomerAddress)
	}
	return customers.ToDisplay(customers.Profile{
		Type:        customers.CustomerType(row.CustomerType),
		Prefix:      row.CustomerPrefix,
		FirstName:   row.CustomerFirst,
		LastName:    row.CustomerLast,
		CompanyName: row.CustomerCompany,
		Phone:       row.CustomerPhone,
		Address:     row.CustomerAddress,
	})
}

func progressPercent(total, paid float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(paid / total * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func remainingInstallments(row SourceRow, remaining float64) int {
	if row.InstallmentCount > 0 && row.PaymentCount > 0 {
		left := row.InstallmentCount - row.PaymentCount
		if left < 0 {
			return 0
		}
		return left
	}
	if row.MonthlyPayment > 0 {
		return int(math.Ceil(remaining / row.MonthlyPayment))
	}
	return row.InstallmentCount
}

// projectNextDue estimates the next schedule date for display: one month
// after the last confirmed payment, falling back to the stored due date.
func projectNextDue(row SourceRow) *time.Time {
	if row.LastPaymentDate != nil {
		next := row.LastPaymentDate.AddDate(0, 1, 0)
		return &next
	}
	return row.DueDate
}
