package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rahatc/paydesh/internal/domain/account"
	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/notification"
	"github.com/rahatc/paydesh/internal/middleware"
	"github.com/rahatc/paydesh/internal/service"
)

// AccountController handles wallet provisioning and read endpoints.
type AccountController struct {
	accountService   *service.AccountService
	transferService  *service.TransferService
	notificationRepo notification.Repository
}

// NewAccountController creates a new AccountController.
func NewAccountController(
	accountService *service.AccountService,
	transferService *service.TransferService,
	notificationRepo notification.Repository,
) *AccountController {
	return &AccountController{
		accountService:   accountService,
		transferService:  transferService,
		notificationRepo: notificationRepo,
	}
}

func (h *AccountController) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok || ownerID == "" {
		writeError(w, domainErrors.ErrUnauthorized)
		return "", false
	}
	return ownerID, true
}

// Create handles POST /api/v1/accounts
func (h *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	acct, err := h.accountService.Create(r.Context(), service.CreateAccountInput{
		OwnerID:   ownerID,
		OwnerName: req.OwnerName,
		Phone:     req.Phone,
		PIN:       req.PIN,
		Category:  account.Category(req.Category),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromAccount(acct))
}

// Balance handles GET /api/v1/wallet/balance
func (h *AccountController) Balance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	acct, err := h.accountService.Balance(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{Balance: centsToFloat(acct.Balance)})
}

// ListRequests handles GET /api/v1/requests
func (h *AccountController) ListRequests(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	reqs, err := h.transferService.ListRequests(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*MoneyRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, FromMoneyRequest(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Notifications handles GET /api/v1/notifications
func (h *AccountController) Notifications(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.notificationRepo.ListForOwner(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, FromNotification(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkNotificationRead handles POST /api/v1/notifications/{id}/read
func (h *AccountController) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid notification id", Code: "invalid_id"})
		return
	}

	if err := h.notificationRepo.MarkRead(r.Context(), id, ownerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
