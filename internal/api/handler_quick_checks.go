package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/machine"
)

type quickCheckItemPayload struct {
	Name   string `json:"name" binding:"required"`
	Result string `json:"result" binding:"required"`
}

type recordQuickCheckRequest struct {
	Result              string                  `json:"result" binding:"required"`
	Items               []quickCheckItemPayload `json:"items"`
	ResponsibleName     string                  `json:"responsible_name"`
	ResponsibleWorkerID string                  `json:"responsible_worker_id"`
}

type quickCheckView struct {
	ID                  uuid.UUID               `json:"id"`
	Result              string                  `json:"result"`
	Items               []quickCheckItemPayload `json:"items"`
	ResponsibleName     string                  `json:"responsible_name"`
	ResponsibleWorkerID string                  `json:"responsible_worker_id"`
	CreatedAt           time.Time               `json:"created_at"`
}

func quickCheckViews(qcs []machine.QuickCheck) []quickCheckView {
	views := make([]quickCheckView, len(qcs))
	for i, qc := range qcs {
		items := make([]quickCheckItemPayload, len(qc.Items))
		for j, item := range qc.Items {
			items[j] = quickCheckItemPayload{Name: item.Name, Result: string(item.Result)}
		}
		views[i] = quickCheckView{
			ID:                  qc.ID,
			Result:              string(qc.Result),
			Items:               items,
			ResponsibleName:     qc.ResponsibleName,
			ResponsibleWorkerID: qc.ResponsibleWorkerID,
			CreatedAt:           qc.CreatedAt,
		}
	}
	return views
}

// RecordQuickCheck handles POST /api/machines/{machine_id}/quick-checks.
func (h *Handler) RecordQuickCheck(c *gin.Context) {
	var req recordQuickCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]machine.QuickCheckItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = machine.QuickCheckItem{Name: item.Name, Result: machine.ItemResult(item.Result)}
	}

	var recorded machine.QuickCheck
	_, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		var err error
		recorded, err = m.RecordQuickCheck(machine.QuickCheck{
			Result:              machine.QuickCheckResult(req.Result),
			Items:               items,
			ResponsibleName:     req.ResponsibleName,
			ResponsibleWorkerID: req.ResponsibleWorkerID,
		}, time.Now())
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, quickCheckViews([]machine.QuickCheck{recorded})[0])
}

// ListQuickChecks handles GET /api/machines/{machine_id}/quick-checks. It
// returns the capped history, newest first.
func (h *Handler) ListQuickChecks(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}
	m, err := h.store.LoadMachine(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, quickCheckViews(m.QuickChecks))
}
