package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/model"
)

// ProviderResponse represents the API response for a single provider.
type ProviderResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	AssignedMachines int64     `json:"assigned_machines"`
}

// ListProviders handles the GET /api/providers request.
func (h *Handler) ListProviders(c *gin.Context) {
	db := h.store.DB().WithContext(c.Request.Context())

	var providers []model.Provider
	if err := db.Order("name ASC").Find(&providers).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve providers"})
		return
	}

	// One aggregate query for per-provider machine counts.
	type aggRow struct {
		ProviderID uuid.UUID
		Total      int64
	}
	var aggs []aggRow
	if err := db.
		Model(&model.Machine{}).
		Select("assigned_provider_id as provider_id, COUNT(*) as total").
		Where("assigned_provider_id IS NOT NULL").
		Group("assigned_provider_id").
		Scan(&aggs).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate machines"})
		return
	}

	aggMap := make(map[uuid.UUID]int64, len(aggs))
	for _, a := range aggs {
		aggMap[a.ProviderID] = a.Total
	}

	responses := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		responses = append(responses, ProviderResponse{
			ID:               p.ID,
			Name:             p.Name,
			ContactEmail:     p.ContactEmail,
			AssignedMachines: aggMap[p.ID],
		})
	}
	c.JSON(http.StatusOK, responses)
}

type createProviderRequest struct {
	Name         string `json:"name" binding:"required,max=128"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// CreateProvider handles the POST /api/providers request.
func (h *Handler) CreateProvider(c *gin.Context) {
	var req createProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider := model.Provider{
		ID:           uuid.New(),
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := h.store.DB().WithContext(c.Request.Context()).Create(&provider).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "provider name already exists"})
		return
	}

	c.JSON(http.StatusCreated, ProviderResponse{
		ID:           provider.ID,
		Name:         provider.Name,
		ContactEmail: provider.ContactEmail,
	})
}
