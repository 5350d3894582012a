package debt

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceRow is the raw per-contract shape read from either population before
// aging and classification run over it.
type SourceRow struct {
	ID               int64
	ContractNo       string
	CustomerName     string
	CustomerPhone    string
	CustomerAddress  string
	CustomerType     string
	CustomerPrefix   string
	CustomerFirst    string
	CustomerLast     string
	CustomerCompany  string
	TotalAmount      float64
	PaidAmount       float64
	MonthlyPayment   float64
	InstallmentCount int
	PaymentCount     int
	DueDate          *time.Time
	LastPaymentDate  *time.Time
	BranchCode       string
	Status           string
	CreatedAt        time.Time
}

// SourceQuery scopes a single-population read. Limit 0 means unbounded,
// which the statistics paths use to walk the full population.
type SourceQuery struct {
	Search         string
	BranchCode     string
	MinDaysOverdue int
	Offset         int
	Limit          int
}

// Repository reads both debt populations from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// overdueCutoff converts a minimum-days-overdue filter into the latest due
// date that still qualifies.
func overdueCutoff(minDays int, now time.Time) time.Time {
	return now.Add(-time.Duration(minDays) * day)
}

// ListTraditional reads the legacy loan population. Legacy rows embed their
// customer snapshot directly, so no directory join is needed.
func (r *Repository) ListTraditional(ctx context.Context, q SourceQuery, now time.Time) ([]SourceRow, error) {
	query := `
		SELECT id, contract_no, COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
			COALESCE(customer_address, ''), total_amount, paid_amount,
			COALESCE(monthly_payment, 0), COALESCE(installment_count, 0),
			due_date, last_payment_date, COALESCE(branch_code, ''), status, created_at
		FROM legacy_loan_contracts
		WHERE status NOT IN ('completed', 'cancelled')
			AND total_amount - paid_amount > 0
			AND due_date IS NOT NULL AND due_date <= $1
			AND ($2 = '' OR contract_no ILIKE '%' || $2 || '%' OR customer_name ILIKE '%' || $2 || '%')
			AND ($3 = '' OR branch_code = $3)
		ORDER BY total_amount - paid_amount DESC, id
		OFFSET $4 LIMIT NULLIF($5, 0)`
	rows, err := r.pool.Query(ctx, query,
		overdueCutoff(q.MinDaysOverdue, now), q.Search, q.BranchCode, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		var dueDate, lastPayment pgtype.Timestamptz
		err := rows.Scan(
			&s.ID, &s.ContractNo, &s.CustomerName, &s.CustomerPhone, &s.CustomerAddress,
			&s.TotalAmount, &s.PaidAmount, &s.MonthlyPayment, &s.InstallmentCount,
			&dueDate, &lastPayment, &s.BranchCode, &s.Status, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		s.DueDate = tzPtr(dueDate)
		s.LastPaymentDate = tzPtr(lastPayment)
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountTraditional counts the legacy population under the same filter.
func (r *Repository) CountTraditional(ctx context.Context, q SourceQuery, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM legacy_loan_contracts
		WHERE status NOT IN ('completed', 'cancelled')
			AND total_amount - paid_amount > 0
			AND due_date IS NOT NULL AND due_date <= $1
			AND ($2 = '' OR contract_no ILIKE '%' || $2 || '%' OR customer_name ILIKE '%' || $2 || '%')
			AND ($3 = '' OR branch_code = $3)`
	var n int
	err := r.pool.QueryRow(ctx, query, overdueCutoff(q.MinDaysOverdue, now), q.Search, q.BranchCode).Scan(&n)
	return n, err
}

const installmentSelect = `
	SELECT c.id, c.contract_no,
		COALESCE(cu.customer_type, 'individual'), COALESCE(cu.prefix, ''),
		COALESCE(cu.first_name, ''), COALESCE(cu.last_name, ''),
		COALESCE(cu.company_name, ''), COALESCE(cu.phone, ''), COALESCE(cu.address, ''),
		c.total_amount, c.paid_amount, c.monthly_payment, c.installment_count,
		COALESCE(p.confirmed_count, 0), c.due_date, p.last_payment, c.branch_code, c.status, c.created_at
	FROM installment_contracts c
	LEFT JOIN customers cu ON cu.id = c.customer_id
	LEFT JOIN (
		SELECT contract_id, COUNT(*) AS confirmed_count, MAX(payment_date) AS last_payment
		FROM installment_payments
		WHERE status = 'confirmed'
		GROUP BY contract_id
	) p ON p.contract_id = c.id`

const installmentWhere = `
	WHERE c.deleted_at IS NULL
		AND c.status NOT IN ('completed', 'cancelled', 'rejected')
		AND c.total_amount - c.paid_amount > 0
		AND c.due_date IS NOT NULL AND c.due_date <= $1
		AND ($2 = '' OR c.contract_no ILIKE '%' || $2 || '%'
			OR cu.first_name ILIKE '%' || $2 || '%' OR cu.last_name ILIKE '%' || $2 || '%'
			OR cu.company_name ILIKE '%' || $2 || '%')
		AND ($3 = '' OR c.branch_code = $3)`

// ListInstallment reads the installment population with customer directory
// fields and a confirmed-ledger summary attached.
func (r *Repository) ListInstallment(ctx context.Context, q SourceQuery, now time.Time) ([]SourceRow, error) {
	query := installmentSelect + installmentWhere + `
	ORDER BY c.total_amount - c.paid_amount DESC, c.id
	OFFSET $4 LIMIT NULLIF($5, 0)`
	rows, err := r.pool.Query(ctx, query,
		overdueCutoff(q.MinDaysOverdue, now), q.Search, q.BranchCode, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		var dueDate, lastPayment pgtype.Timestamptz
		err := rows.Scan(
			&s.ID, &s.ContractNo,
			&s.CustomerType, &s.CustomerPrefix, &s.CustomerFirst, &s.CustomerLast,
			&s.CustomerCompany, &s.CustomerPhone, &s.CustomerAddress,
			&s.TotalAmount, &s.PaidAmount, &s.MonthlyPayment, &s.InstallmentCount,
			&s.PaymentCount, &dueDate, &lastPayment, &s.BranchCode, &s.Status, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		s.DueDate = tzPtr(dueDate)
		s.LastPaymentDate = tzPtr(lastPayment)
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountInstallment counts the installment population under the same filter.
func (r *Repository) CountInstallment(ctx context.Context, q SourceQuery, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM installment_contracts c
	LEFT JOIN customers cu ON cu.id = c.customer_id` + installmentWhere
	var n int
	err := r.pool.QueryRow(ctx, query, overdueCutoff(q.MinDaysOverdue, now), q.Search, q.BranchCode).Scan(&n)
	return n, err
}

// MonthlyCollection is one month of the confirmed-payment trend series.
type MonthlyCollection struct {
	Month        string  `json:"month"`
	Collected    float64 `json:"collected"`
	PaymentCount int     `json:"paymentCount"`
}

// MonthlyTrends aggregates confirmed payments per calendar month over the
// trailing window.
func (r *Repository) MonthlyTrends(ctx context.Context, months int, now time.Time) ([]MonthlyCollection, error) {
	query := `
		SELECT to_char(date_trunc('month', payment_date), 'YYYY-MM') AS month,
			COALESCE(SUM(amount), 0), COUNT(*)
		FROM installment_payments
		WHERE status = 'confirmed' AND payment_date >= $1
		GROUP BY 1
		ORDER BY 1`
	from := now.AddDate(0, -months, 0)
	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyCollection
	for rows.Next() {
		var m MonthlyCollection
		if err := rows.Scan(&m.Month, &m.Collected, &m.PaymentCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CollectionTotals returns the confirmed collected amount and the contract
// book value used for the collection-rate indicator.
func (r *Repository) CollectionTotals(ctx context.Context) (collected, book float64, err error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM installment_payments WHERE status = 'confirmed'),
			(SELECT COALESCE(SUM(total_amount), 0) FROM installment_contracts
				WHERE deleted_at IS NULL AND status NOT IN ('cancelled', 'rejected'))`
	err = r.pool.QueryRow(ctx, query).Scan(&collected, &book)
	return collected, book, err
}

func tzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
