package reconhttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/chaiyo-erp/chaiyo-erp/internal/recon"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

type stubReconService struct {
	result *recon.Result
	err    error
	lastID int64
}

func (s *stubReconService) Reconcile(ctx context.Context, contractID int64) (*recon.Result, error) {
	s.lastID = contractID
	return s.result, s.err
}

type stubEnqueuer struct {
	enqueued []int64
	err      error
}

func (s *stubEnqueuer) EnqueueReconcile(ctx context.Context, contractID int64) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, contractID)
	return nil
}

func newTestRouter(svc ReconService, enq Enqueuer) http.Handler {
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc, enq).MountRoutes(r)
	return r
}

func TestHandleReconcileInline(t *testing.T) {
	svc := &stubReconService{
		result: &recon.Result{ContractID: 7, Outcome: recon.OutcomeUpdated},
	}
	router := newTestRouter(svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/contracts/7/reconcile", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if svc.lastID != 7 {
		t.Fatalf("expected contract 7, got %d", svc.lastID)
	}
	var result recon.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Outcome != recon.OutcomeUpdated {
		t.Fatalf("unexpected outcome %s", result.Outcome)
	}
}

func TestHandleReconcileAsync(t *testing.T) {
	svc := &stubReconService{}
	enq := &stubEnqueuer{}
	router := newTestRouter(svc, enq)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/contracts/9/reconcile?async=1", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if len(enq.enqueued) != 1 || enq.enqueued[0] != 9 {
		t.Fatalf("expected enqueue of 9, got %v", enq.enqueued)
	}
	if svc.lastID != 0 {
		t.Fatal("async request must not run inline")
	}
}

func TestHandleReconcileBadID(t *testing.T) {
	router := newTestRouter(&stubReconService{}, nil)

	for _, path := range []string{"/api/contracts/abc/reconcile", "/api/contracts/0/reconcile", "/api/contracts/-3/reconcile"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("path %s: expected 400, got %d", path, rr.Code)
		}
	}
}

func TestHandleReconcileNotFound(t *testing.T) {
	svc := &stubReconService{err: shared.ErrNotFound}
	router := newTestRouter(svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/contracts/404/reconcile", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleReconcileInternalErrorEnvelope(t *testing.T) {
	svc := &stubReconService{err: errors.New("pg: connection refused")}
	router := newTestRouter(svc, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/contracts/5/reconcile", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var envelope struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Code != shared.CodeInternalError || envelope.Message == "pg: connection refused" {
		t.Fatalf("internal error must not leak: %+v", envelope)
	}
}
