package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
	}
}

// machineID parses the machine id path parameter.
func machineID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("machine_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid machine ID"})
		return uuid.Nil, false
	}
	return id, true
}

// abortWithDomainError maps domain and store error kinds onto HTTP statuses.
func abortWithDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, machine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, machine.ErrNotFound), errors.Is(err, store.ErrMachineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, machine.ErrAlreadyInStatus),
		errors.Is(err, machine.ErrDomainRule),
		errors.Is(err, store.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, machine.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// mutateMachine runs one aggregate mutation as a load-apply-save round trip.
// The domain rejects bad mutations before anything is written, so a failed
// apply never reaches the store.
func (h *Handler) mutateMachine(c *gin.Context, apply func(m *machine.Machine) error) (*machine.Machine, bool) {
	id, ok := machineID(c)
	if !ok {
		return nil, false
	}

	m, err := h.store.LoadMachine(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return nil, false
	}
	if err := apply(m); err != nil {
		abortWithDomainError(c, err)
		return nil, false
	}
	if err := h.store.SaveMachine(c.Request.Context(), m); err != nil {
		abortWithDomainError(c, err)
		return nil, false
	}
	return m, true
}
