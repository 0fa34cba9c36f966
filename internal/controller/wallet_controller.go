package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/infrastructure/observability"
	"github.com/rahatc/paydesh/internal/middleware"
	"github.com/rahatc/paydesh/internal/service"
)

// WalletController handles the money movement endpoints.
type WalletController struct {
	transferService *service.TransferService
	metrics         *observability.Metrics
}

// NewWalletController creates a new WalletController.
func NewWalletController(transferService *service.TransferService, metrics *observability.Metrics) *WalletController {
	return &WalletController{transferService: transferService, metrics: metrics}
}

func (h *WalletController) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok || ownerID == "" {
		writeError(w, domainErrors.ErrUnauthorized)
		return "", false
	}
	return ownerID, true
}

// observe records the operation outcome in the engine metrics.
func (h *WalletController) observe(kind string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	status := "completed"
	if err != nil {
		status = "failed"
		h.metrics.TransferErrors.WithLabelValues(kind, errReason(err)).Inc()
		if errors.Is(err, domainErrors.ErrDuplicateAttempt) {
			h.metrics.DuplicateSuppressed.Inc()
		}
	}
	h.metrics.TransfersTotal.WithLabelValues(kind, status).Inc()
	h.metrics.TransferDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// errReason maps an error to a low-cardinality label value.
func errReason(err error) string {
	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		return "validation_error"
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return "internal_error"
}

// Transfer handles POST /api/v1/transfers
func (h *WalletController) Transfer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	res, err := h.transferService.Transfer(r.Context(), service.TransferInput{
		ActorOwnerID: ownerID,
		ToPhone:      req.ToPhone,
		Amount:       floatToCents(req.Amount),
		PIN:          req.PIN,
	})
	h.observe("transfer", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransferResponse{
		Reference:    res.CorrelationRef,
		NewBalance:   centsToFloat(res.NewBalance),
		Counterparty: res.CounterpartyName,
		Timestamp:    res.Timestamp,
	})
}

// CashIn handles POST /api/v1/cash-in
func (h *WalletController) CashIn(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req CashInRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	res, err := h.transferService.CashIn(r.Context(), service.CashInInput{
		AgentOwnerID: ownerID,
		UserPhone:    req.UserPhone,
		Amount:       floatToCents(req.Amount),
		PIN:          req.PIN,
	})
	h.observe("cash_in", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CashInResponse{
		Reference:       res.CorrelationRef,
		NewAgentBalance: centsToFloat(res.NewAgentBalance),
		Timestamp:       res.Timestamp,
	})
}

// CashOut handles POST /api/v1/cash-out
func (h *WalletController) CashOut(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req CashOutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	res, err := h.transferService.CashOut(r.Context(), service.CashOutInput{
		ActorOwnerID: ownerID,
		AgentPhone:   req.AgentPhone,
		Amount:       floatToCents(req.Amount),
		PIN:          req.PIN,
	})
	h.observe("cash_out", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.FeesCollectedCents.Add(float64(res.Fee))
	}

	writeJSON(w, http.StatusCreated, CashOutResponse{
		Reference:    res.CorrelationRef,
		Fee:          centsToFloat(res.Fee),
		TotalDebited: centsToFloat(res.TotalDebited),
		NewBalance:   centsToFloat(res.NewBalance),
		Timestamp:    res.Timestamp,
	})
}

// CreateRequest handles POST /api/v1/requests
func (h *WalletController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req CreateMoneyRequestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.transferService.RequestMoney(r.Context(), service.RequestMoneyInput{
		RequesterOwnerID: ownerID,
		PayerPhone:       req.PayerPhone,
		Amount:           floatToCents(req.Amount),
		Note:             req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MoneyRequestsTotal.WithLabelValues("requested").Inc()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"request_id": res.RequestID.String(),
		"expires_at": res.ExpiresAt,
	})
}

// ApproveRequest handles POST /api/v1/requests/{id}/approve
func (h *WalletController) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request id", Code: "invalid_id"})
		return
	}

	var req ApproveMoneyRequestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	res, err := h.transferService.ApproveRequest(r.Context(), service.ApproveRequestInput{
		RequestID:    requestID,
		PayerOwnerID: ownerID,
		PIN:          req.PIN,
	})
	h.observe("request_payment", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MoneyRequestsTotal.WithLabelValues("paid").Inc()
	}

	writeJSON(w, http.StatusOK, ApproveResponse{
		Reference: res.CorrelationRef,
		Amount:    centsToFloat(res.Amount),
		Timestamp: res.Timestamp,
	})
}

// DeclineRequest handles POST /api/v1/requests/{id}/decline
func (h *WalletController) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, "declined")
}

// CancelRequest handles POST /api/v1/requests/{id}/cancel
func (h *WalletController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, "cancelled")
}

func (h *WalletController) resolveRequest(w http.ResponseWriter, r *http.Request, outcome string) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request id", Code: "invalid_id"})
		return
	}

	switch outcome {
	case "declined":
		err = h.transferService.DeclineRequest(r.Context(), requestID, ownerID)
	case "cancelled":
		err = h.transferService.CancelRequest(r.Context(), requestID, ownerID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MoneyRequestsTotal.WithLabelValues(outcome).Inc()
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": outcome})
}

// History handles GET /api/v1/transactions
func (h *WalletController) History(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	res, err := h.transferService.History(r.Context(), ownerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]*EntryResponse, 0, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, FromEntry(e))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Entries:  entries,
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

// Detail handles GET /api/v1/transactions/{id}
func (h *WalletController) Detail(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id", Code: "invalid_id"})
		return
	}

	res, err := h.transferService.Detail(r.Context(), entryID, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	events := make([]*EventResponse, 0, len(res.Events))
	for _, ev := range res.Events {
		events = append(events, FromEvent(ev))
	}
	writeJSON(w, http.StatusOK, DetailResponse{
		Entry:  FromEntry(res.Entry),
		Events: events,
	})
}
