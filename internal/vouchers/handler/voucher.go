package handler

import (
	"encoding/json"
	"net/http"

	"stayvoucher/internal/vouchers/service"
	httputil "stayvoucher/pkg/http"
	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/middleware"
	"stayvoucher/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VoucherHandler struct {
	service service.VoucherService
	log     *logger.Logger
}

func NewVoucherHandler(service service.VoucherService, log *logger.Logger) *VoucherHandler {
	return &VoucherHandler{
		service: service,
		log:     log,
	}
}

func (h *VoucherHandler) Issue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var voucher model.Voucher
	if err := json.NewDecoder(r.Body).Decode(&voucher); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Issue", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	voucher.CreatedBy = middleware.SubjectID(r.Context())

	if err := h.service.Issue(r.Context(), &voucher); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Issue", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, voucher); err != nil {
		h.log.Error("failed to write created response", "handler", "Issue", "operation", "WriteCreated", "error", err)
	}
}

func (h *VoucherHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	voucher, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, voucher); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VoucherHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	filter := model.VoucherFilter{
		Status:  query.Get("status"),
		Code:    query.Get("code"),
		HotelID: query.Get("hotel_id"),
	}

	vouchers, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, vouchers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var updates model.VoucherUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	updated, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VoucherHandler) Preview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Preview", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.Preview(r.Context(), middleware.SubjectID(r.Context()), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Preview", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Preview", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VoucherHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/vouchers", h.Issue)
	router.GET("/api/v1/vouchers", h.GetAll)
	router.GET("/api/v1/vouchers/id/:id", h.GetByID)
	router.PATCH("/api/v1/vouchers/id/:id", h.Update)
	router.DELETE("/api/v1/vouchers/id/:id", h.Delete)
	router.POST("/api/v1/vouchers/preview", h.Preview)
}
