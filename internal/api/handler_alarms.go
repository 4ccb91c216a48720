package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/machine"
)

type alarmView struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	IntervalHours    float64    `json:"interval_hours"`
	AccumulatedHours float64    `json:"accumulated_hours"`
	IsActive         bool       `json:"is_active"`
	TimesTriggered   int        `json:"times_triggered"`
	LastTriggeredAt  *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func alarmViews(alarms []machine.Alarm) []alarmView {
	views := make([]alarmView, len(alarms))
	for i, a := range alarms {
		views[i] = alarmView{
			ID:               a.ID,
			Name:             a.Name,
			IntervalHours:    a.IntervalHours,
			AccumulatedHours: a.AccumulatedHours,
			IsActive:         a.IsActive,
			TimesTriggered:   a.TimesTriggered,
			LastTriggeredAt:  a.LastTriggeredAt,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		}
	}
	return views
}

func alarmID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("alarm_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid alarm ID"})
		return uuid.Nil, false
	}
	return id, true
}

// ListAlarms handles GET /api/machines/{machine_id}/alarms. Deactivated
// alarms are included; they carry the audit counters.
func (h *Handler) ListAlarms(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}
	m, err := h.store.LoadMachine(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, alarmViews(m.Alarms))
}

type alarmRequest struct {
	Name          string  `json:"name" binding:"required"`
	IntervalHours float64 `json:"interval_hours" binding:"required"`
}

// AddAlarm handles POST /api/machines/{machine_id}/alarms.
func (h *Handler) AddAlarm(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var created machine.Alarm
	_, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		var err error
		created, err = m.AddAlarm(req.Name, req.IntervalHours, time.Now())
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, alarmViews([]machine.Alarm{created})[0])
}

// UpdateAlarm handles PUT /api/machines/{machine_id}/alarms/{alarm_id}. The
// accumulated hours are never rescaled to the new interval.
func (h *Handler) UpdateAlarm(c *gin.Context) {
	aid, ok := alarmID(c)
	if !ok {
		return
	}
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.UpdateAlarm(aid, req.Name, req.IntervalHours, time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, alarmViews(m.Alarms))
}

// DeactivateAlarm handles DELETE /api/machines/{machine_id}/alarms/{alarm_id}.
// This is a soft delete: the alarm is excluded from evaluation but retained.
func (h *Handler) DeactivateAlarm(c *gin.Context) {
	aid, ok := alarmID(c)
	if !ok {
		return
	}

	_, ok = h.mutateMachine(c, func(m *machine.Machine) error {
		return m.DeactivateAlarm(aid, time.Now())
	})
	if !ok {
		return
	}
	c.Status(http.StatusNoContent)
}

type tickAlarmRequest struct {
	DeltaHours float64 `json:"delta_hours"`
}

type tickAlarmResponse struct {
	Triggered        int     `json:"triggered"`
	AccumulatedHours float64 `json:"accumulated_hours"`
}

// TickAlarm handles POST /api/machines/{machine_id}/alarms/{alarm_id}/tick.
// It is the operational entry point for feeding hours outside the periodic
// evaluator, e.g. after a manual meter reading.
func (h *Handler) TickAlarm(c *gin.Context) {
	aid, ok := alarmID(c)
	if !ok {
		return
	}
	var req tickAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var outcome machine.TickOutcome
	_, ok = h.mutateMachine(c, func(m *machine.Machine) error {
		var err error
		outcome, err = m.TickAlarm(aid, req.DeltaHours, time.Now())
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tickAlarmResponse{
		Triggered:        len(outcome.Triggers),
		AccumulatedHours: outcome.AccumulatedHours,
	})
}
