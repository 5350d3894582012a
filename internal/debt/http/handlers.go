package debthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
	"github.com/chaiyo-erp/chaiyo-erp/internal/debt/export"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

const requestTimeout = 10 * time.Second

// DebtService defines the read-pipeline contract used by the handler.
type DebtService interface {
	IntegratedList(ctx context.Context, filter debt.ListFilter) (*debt.ListResult, error)
	AgedAnalysis(ctx context.Context, branchCode string) (*debt.AgingReport, error)
	GetStatistics(ctx context.Context, branchCode string) (*debt.Statistics, error)
	ExportRows(ctx context.Context, filter debt.ListFilter) ([]debt.DebtRecord, error)
	Criteria() debt.Criteria
	UpdateCriteria(ctx context.Context, c debt.Criteria) (debt.Criteria, error)
	CriteriaHistory(ctx context.Context, limit int) ([]debt.Criteria, error)
}

// Handler serves the debt reporting endpoints.
type Handler struct {
	logger   *slog.Logger
	service  DebtService
	validate *validator.Validate
}

// NewHandler constructs the debt HTTP handler.
func NewHandler(logger *slog.Logger, service DebtService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.IntegratedList(ctx, filter)
	if err != nil {
		h.logger.Error("integrated list failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAging(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.AgedAnalysis(ctx, r.URL.Query().Get("branchCode"))
	if err != nil {
		h.logger.Error("aged analysis failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.GetStatistics(ctx, r.URL.Query().Get("branchCode"))
	if err != nil {
		h.logger.Error("statistics failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGetCriteria(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	history, err := h.service.CriteriaHistory(ctx, 20)
	if err != nil {
		h.logger.Error("criteria history failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"current": h.service.Criteria(),
		"history": history,
	})
}

func (h *Handler) handlePutCriteria(w http.ResponseWriter, r *http.Request) {
	var body debt.Criteria
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.RespondError(w, shared.ValidationError{Field: "body"})
		return
	}
	if err := h.validate.Struct(body); err != nil {
		shared.RespondError(w, shared.ValidationError{Field: "criteria"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stored, err := h.service.UpdateCriteria(ctx, body)
	if err != nil {
		h.logger.Error("criteria update failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	records, err := h.service.ExportRows(ctx, filter)
	if err != nil {
		h.logger.Error("export failed", "error", err)
		shared.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("debts-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteDebtCSV(w, records); err != nil {
		h.logger.Error("csv write failed", "error", err)
	}
}

func (h *Handler) parseFilter(r *http.Request) (debt.ListFilter, error) {
	filter := debt.DefaultListFilter()
	q := r.URL.Query()

	var err error
	if filter.Page, err = intParam(q.Get("page"), filter.Page); err != nil {
		return filter, shared.ValidationError{Field: "page"}
	}
	if filter.Limit, err = intParam(q.Get("limit"), filter.Limit); err != nil {
		return filter, shared.ValidationError{Field: "limit"}
	}
	if filter.MinDaysOverdue, err = intParam(q.Get("minDaysOverdue"), 0); err != nil {
		return filter, shared.ValidationError{Field: "minDaysOverdue"}
	}
	filter.Search = q.Get("search")
	filter.BranchCode = q.Get("branchCode")
	if sortBy := q.Get("sortBy"); sortBy != "" {
		filter.SortBy = debt.MergeSort(sortBy)
	}

	if err := h.validate.Struct(filter); err != nil {
		return filter, shared.ValidationError{Field: "query"}
	}
	return filter, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
