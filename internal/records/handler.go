package records

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/healthrecord-management/internal"
	"github.com/frahmantamala/healthrecord-management/internal/audit"
	"github.com/frahmantamala/healthrecord-management/internal/transport"
	"github.com/frahmantamala/healthrecord-management/pkg/logger"
)

const tableName = "patient_records"

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Audit   *audit.Pipeline
}

func NewHandler(svc *Service, auditPipeline *audit.Pipeline) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Audit:       auditPipeline,
	}
}

func (h *Handler) recordID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func marshalValue(v interface{}) *string {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := h.recordID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	record, err := h.Service.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			h.HandleError(w, internal.ErrRecordNotFound)
			return
		}
		h.HandleError(w, err)
		return
	}

	h.Audit.LogAudit(r, audit.ActionRead, tableName, &id)
	h.WriteJSON(w, http.StatusOK, toView(record))
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var dto CreateRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.Create(dto)
	if err != nil {
		if _, ok := err.(validationError); ok {
			h.HandleError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
			return
		}
		h.HandleError(w, err)
		return
	}

	h.Audit.LogAuditValues(r, audit.ActionCreate, tableName, &record.ID, nil, marshalValue(toView(record)))
	h.WriteJSON(w, http.StatusCreated, toView(record))
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := h.recordID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	before, err := h.Service.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			h.HandleError(w, internal.ErrRecordNotFound)
			return
		}
		h.HandleError(w, err)
		return
	}
	oldValue := marshalValue(toView(before))

	var dto UpdateRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.Update(id, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.Audit.LogAuditValues(r, audit.ActionUpdate, tableName, &id, oldValue, marshalValue(toView(record)))
	h.WriteJSON(w, http.StatusOK, toView(record))
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := h.recordID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	before, err := h.Service.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			h.HandleError(w, internal.ErrRecordNotFound)
			return
		}
		h.HandleError(w, err)
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleError(w, err)
		return
	}

	h.Audit.LogAuditValues(r, audit.ActionDelete, tableName, &id, marshalValue(toView(before)), nil)
	w.WriteHeader(http.StatusNoContent)
}
