package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/model"
)

type specsPayload struct {
	EnginePower    float64 `json:"engine_power"`
	Capacity       float64 `json:"capacity"`
	FuelType       string  `json:"fuel_type"`
	Year           int     `json:"year"`
	WeightKg       float64 `json:"weight_kg"`
	OperatingHours float64 `json:"operating_hours"`
}

type locationPayload struct {
	Address   string  `json:"address" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *specsPayload) toDomain() machine.Specs {
	return machine.Specs{
		EnginePower:    p.EnginePower,
		Capacity:       p.Capacity,
		FuelType:       p.FuelType,
		Year:           p.Year,
		WeightKg:       p.WeightKg,
		OperatingHours: p.OperatingHours,
	}
}

func (p *locationPayload) toDomain() machine.Location {
	return machine.Location{Address: p.Address, Latitude: p.Latitude, Longitude: p.Longitude}
}

// machineSummary is the list-view shape of one machine.
type machineSummary struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	IsOperational      bool       `json:"is_operational"`
	AssignedProviderID *uuid.UUID `json:"assigned_provider_id,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func summaryFromRow(row model.Machine) machineSummary {
	status, err := machine.ParseStatus(row.Status)
	operational := err == nil && status.IsOperational()
	return machineSummary{
		ID:                 row.ID,
		Name:               row.Name,
		Status:             row.Status,
		IsOperational:      operational,
		AssignedProviderID: row.AssignedProviderID,
		UpdatedAt:          row.UpdatedAt,
	}
}

// machineDetail is the full aggregate snapshot returned for one machine.
type machineDetail struct {
	machineSummary
	AllowsProviderAssignment bool               `json:"allows_provider_assignment"`
	Specs                    *specsPayload      `json:"specs,omitempty"`
	Location                 *locationPayload   `json:"location,omitempty"`
	ProviderAssignedAt       *time.Time         `json:"provider_assigned_at,omitempty"`
	QuickChecks              []quickCheckView   `json:"quick_checks"`
	Alarms                   []alarmView        `json:"alarms"`
	RecentEvents             []eventView        `json:"recent_events"`
	ValidTransitions         []machine.Status   `json:"valid_transitions"`
	CreatedAt                time.Time          `json:"created_at"`
}

func detailFromAggregate(m *machine.Machine) machineDetail {
	d := machineDetail{
		machineSummary: machineSummary{
			ID:                 m.ID,
			Name:               m.Name,
			Status:             string(m.Status),
			IsOperational:      m.Status.IsOperational(),
			AssignedProviderID: m.AssignedProviderID,
			UpdatedAt:          m.UpdatedAt,
		},
		AllowsProviderAssignment: m.Status.AllowsProviderAssignment(),
		ProviderAssignedAt:       m.ProviderAssignedAt,
		QuickChecks:              quickCheckViews(m.QuickChecks),
		Alarms:                   alarmViews(m.Alarms),
		RecentEvents:             eventViewsFromDomain(m.Events),
		ValidTransitions:         m.Status.ValidTransitions(),
		CreatedAt:                m.CreatedAt,
	}
	if m.Specs != nil {
		d.Specs = &specsPayload{
			EnginePower:    m.Specs.EnginePower,
			Capacity:       m.Specs.Capacity,
			FuelType:       m.Specs.FuelType,
			Year:           m.Specs.Year,
			WeightKg:       m.Specs.WeightKg,
			OperatingHours: m.Specs.OperatingHours,
		}
	}
	if m.Location != nil {
		d.Location = &locationPayload{
			Address:   m.Location.Address,
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}
	return d
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	rows, err := h.store.ListMachines(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machines"})
		return
	}
	response := make([]machineSummary, 0, len(rows))
	for _, row := range rows {
		response = append(response, summaryFromRow(row))
	}
	c.JSON(http.StatusOK, response)
}

type createMachineRequest struct {
	Name     string           `json:"name" binding:"required"`
	Specs    *specsPayload    `json:"specs"`
	Location *locationPayload `json:"location"`
}

// CreateMachine handles POST /api/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var specs *machine.Specs
	if req.Specs != nil {
		s := req.Specs.toDomain()
		specs = &s
	}
	var location *machine.Location
	if req.Location != nil {
		l := req.Location.toDomain()
		location = &l
	}

	m, err := machine.New(req.Name, specs, location, time.Now())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	if err := h.store.CreateMachine(c.Request.Context(), m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, detailFromAggregate(m))
}

// GetMachine handles GET /api/machines/{machine_id}.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}
	m, err := h.store.LoadMachine(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus handles POST /api/machines/{machine_id}/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requested, err := machine.ParseStatus(req.Status)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.ChangeStatus(requested, time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}

// UpdateSpecs handles PUT /api/machines/{machine_id}/specs.
func (h *Handler) UpdateSpecs(c *gin.Context) {
	var req specsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.UpdateSpecs(req.toDomain(), time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}

// UpdateLocation handles PUT /api/machines/{machine_id}/location.
func (h *Handler) UpdateLocation(c *gin.Context) {
	var req locationPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.UpdateLocation(req.toDomain(), time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}

type assignProviderRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
}

// AssignProvider handles POST /api/machines/{machine_id}/provider.
func (h *Handler) AssignProvider(c *gin.Context) {
	var req assignProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The provider must exist before it can be assigned.
	var count int64
	if err := h.store.DB().WithContext(c.Request.Context()).
		Model(&model.Provider{}).Where("id = ?", req.ProviderID).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up provider"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
		return
	}

	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.AssignProvider(req.ProviderID, time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}

// RemoveProvider handles DELETE /api/machines/{machine_id}/provider.
func (h *Handler) RemoveProvider(c *gin.Context) {
	m, ok := h.mutateMachine(c, func(m *machine.Machine) error {
		return m.RemoveProvider(time.Now())
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detailFromAggregate(m))
}
