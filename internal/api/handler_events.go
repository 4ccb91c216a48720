package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/model"
)

type eventView struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func eventViewsFromDomain(events []machine.Event) []eventView {
	views := make([]eventView, len(events))
	for i, ev := range events {
		views[i] = eventView{
			ID:          ev.ID,
			Kind:        string(ev.Kind),
			Description: ev.Description,
			CreatedAt:   ev.CreatedAt,
		}
	}
	return views
}

func eventViewsFromRows(rows []model.MachineEvent) []eventView {
	views := make([]eventView, len(rows))
	for i, row := range rows {
		views[i] = eventView{
			ID:          row.ID,
			Kind:        row.Kind,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		}
	}
	return views
}

type eventPageResponse struct {
	Events   []eventView `json:"events"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// ListEvents handles GET /api/machines/{machine_id}/events with page and
// page_size query parameters. The event history is unbounded, so reads are
// always paginated.
func (h *Handler) ListEvents(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	rows, total, err := h.store.ListEvents(c.Request.Context(), id, page, pageSize)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}
	c.JSON(http.StatusOK, eventPageResponse{
		Events:   eventViewsFromRows(rows),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

type recordEventRequest struct {
	Description string `json:"description" binding:"required"`
}

// RecordEvent handles POST /api/machines/{machine_id}/events for manual
// history entries.
func (h *Handler) RecordEvent(c *gin.Context) {
	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var recorded machine.Event
	_, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		var err error
		recorded, err = m.RecordEvent(req.Description, time.Now())
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, eventViewsFromDomain([]machine.Event{recorded})[0])
}
