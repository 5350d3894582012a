package debthttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

type stubService struct {
	listResult *debt.ListResult
	listErr    error
	lastFilter debt.ListFilter
	exportRows []debt.DebtRecord
	criteria   debt.Criteria
	updated    *debt.Criteria
}

func (s *stubService) IntegratedList(ctx context.Context, filter debt.ListFilter) (*debt.ListResult, error) {
	s.lastFilter = filter
	return s.listResult, s.listErr
}

func (s *stubService) AgedAnalysis(ctx context.Context, branchCode string) (*debt.AgingReport, error) {
	report := debt.AggregateBuckets(nil)
	return &report, nil
}

func (s *stubService) GetStatistics(ctx context.Context, branchCode string) (*debt.Statistics, error) {
	return &debt.Statistics{}, nil
}

func (s *stubService) ExportRows(ctx context.Context, filter debt.ListFilter) ([]debt.DebtRecord, error) {
	s.lastFilter = filter
	return s.exportRows, nil
}

func (s *stubService) Criteria() debt.Criteria { return s.criteria }

func (s *stubService) UpdateCriteria(ctx context.Context, c debt.Criteria) (debt.Criteria, error) {
	s.updated = &c
	return c, nil
}

func (s *stubService) CriteriaHistory(ctx context.Context, limit int) ([]debt.Criteria, error) {
	return []debt.Criteria{s.criteria}, nil
}

func newTestRouter(t *testing.T, svc DebtService, guard *shared.APIKeyGuard) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r, guard)
	return r
}

func TestHandleListDefaults(t *testing.T) {
	svc := &stubService{
		listResult: &debt.ListResult{
			Records:    []debt.DebtRecord{},
			Pagination: shared.NewPagination(1, 20, 0),
		},
	}
	router := newTestRouter(t, svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/debts/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if svc.lastFilter.Page != 1 || svc.lastFilter.Limit != 20 {
		t.Fatalf("expected default paging, got %+v", svc.lastFilter)
	}
	if svc.lastFilter.SortBy != debt.SortByOverdueAmount {
		t.Fatalf("expected default sort, got %s", svc.lastFilter.SortBy)
	}
}

func TestHandleListParsesQuery(t *testing.T) {
	svc := &stubService{listResult: &debt.ListResult{}}
	router := newTestRouter(t, svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/api/debts/?page=2&limit=50&search=CT&branchCode=BKK01&minDaysOverdue=30&sortBy=riskScore", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	f := svc.lastFilter
	if f.Page != 2 || f.Limit != 50 || f.Search != "CT" || f.BranchCode != "BKK01" || f.MinDaysOverdue != 30 {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.SortBy != debt.SortByRiskScore {
		t.Fatalf("unexpected sort %s", f.SortBy)
	}
}

func TestHandleListRejectsBadParams(t *testing.T) {
	svc := &stubService{listResult: &debt.ListResult{}}
	router := newTestRouter(t, svc, nil)

	for _, query := range []string{"?page=0", "?limit=101", "?page=abc", "?sortBy=nope"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/debts/"+query, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %s: expected 400, got %d", query, rr.Code)
		}
		var envelope struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if envelope.Success || envelope.Code != shared.CodeValidationFailed {
			t.Fatalf("unexpected envelope %+v", envelope)
		}
	}
}

func TestHandlePutCriteria(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc, nil)

	body := strings.NewReader(`{"allowancePct":10,"doubtfulPct":25,"badDebtPct":60,"repossessionCost":1500}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/debts/criteria", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if svc.updated == nil || svc.updated.AllowancePct != 10 {
		t.Fatalf("criteria not passed through: %+v", svc.updated)
	}
}

func TestHandlePutCriteriaRejectsOutOfRange(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc, nil)

	body := strings.NewReader(`{"allowancePct":150,"doubtfulPct":25,"badDebtPct":60}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/debts/criteria", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if svc.updated != nil {
		t.Fatal("invalid criteria must not reach the service")
	}
}

func TestHandleExportRequiresKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	guard := shared.NewAPIKeyGuard(string(hash))
	svc := &stubService{}
	router := newTestRouter(t, svc, guard)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/debts/export.csv", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/debts/export.csv", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong key, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/debts/export.csv", nil)
	req.Header.Set("Authorization", "Bearer operator-key")
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid key, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "เลขที่สัญญา") {
		t.Fatal("expected header row in CSV body")
	}
}

func TestHandleServiceErrorEnvelope(t *testing.T) {
	svc := &stubService{listErr: context.DeadlineExceeded}
	router := newTestRouter(t, svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/debts/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	// Internal error text never leaks; only the fixed taxonomy message does.
	if strings.Contains(rr.Body.String(), "deadline") {
		t.Fatalf("internal error leaked: %s", rr.Body.String())
	}
}
