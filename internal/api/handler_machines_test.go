package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-maintenance-backend/internal/model"
	"fleet-maintenance-backend/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(
		&model.Provider{},
		&model.Machine{},
		&model.QuickCheck{},
		&model.MachineEvent{},
		&model.MaintenanceAlarm{},
		&model.PushSubscription{},
	))

	s := store.NewGormStore(db)
	router := NewRouter(s, &webpush.Options{VAPIDPublicKey: "test-public-key"}, RouterOptions{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Millisecond,
	})
	return router, s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createMachine(t *testing.T, router *gin.Engine) uuid.UUID {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/machines", gin.H{
		"name": "Excavator CAT-320",
		"specs": gin.H{
			"fuel_type":       "diesel",
			"year":            2019,
			"operating_hours": 0,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func TestCreateAndGetMachine(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/machines/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Excavator CAT-320", detail["name"])
	assert.Equal(t, "active", detail["status"])
	assert.Equal(t, true, detail["is_operational"])

	w = doJSON(t, router, http.MethodGet, "/api/machines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateMachineValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/machines", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/machines", gin.H{
		"name":  "Bad specs",
		"specs": gin.H{"operating_hours": -10},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMachineNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/machines/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/machines/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeStatusFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)
	statusURL := "/api/machines/" + id.String() + "/status"

	// Same status is a conflict.
	w := doJSON(t, router, http.MethodPost, statusURL, gin.H{"status": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, statusURL, gin.H{"status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Retire; all further transitions must fail.
	w = doJSON(t, router, http.MethodPost, statusURL, gin.H{"status": "retired"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, statusURL, gin.H{"status": "active"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodPost, statusURL, gin.H{"status": "bulldozing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderAssignmentFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)
	providerURL := "/api/machines/" + id.String() + "/provider"

	w := doJSON(t, router, http.MethodPost, "/api/providers", gin.H{"name": "Acme Service GmbH"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var provider struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &provider))

	// Unknown provider id is a 404.
	w = doJSON(t, router, http.MethodPost, providerURL, gin.H{"provider_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, providerURL, gin.H{"provider_id": provider.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Assigning the same provider twice is a conflict; the first assignment
	// stays in place.
	w = doJSON(t, router, http.MethodPost, providerURL, gin.H{"provider_id": provider.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/machines/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		AssignedProviderID *uuid.UUID `json:"assigned_provider_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.NotNil(t, detail.AssignedProviderID)
	assert.Equal(t, provider.ID, *detail.AssignedProviderID)

	w = doJSON(t, router, http.MethodDelete, providerURL, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, providerURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuickCheckEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)
	qcURL := "/api/machines/" + id.String() + "/quick-checks"

	w := doJSON(t, router, http.MethodPost, qcURL, gin.H{
		"result": "approved",
		"items": []gin.H{
			{"name": "oil level", "result": "approved"},
			{"name": "brakes", "result": "approved"},
		},
		"responsible_name":      "Alex Fischer",
		"responsible_worker_id": "W-1042",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Inconsistent record: disapproved item with approved overall result.
	w = doJSON(t, router, http.MethodPost, qcURL, gin.H{
		"result": "approved",
		"items": []gin.H{
			{"name": "oil level", "result": "approved"},
			{"name": "brakes", "result": "disapproved"},
		},
		"responsible_name":      "Alex Fischer",
		"responsible_worker_id": "W-1042",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, qcURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var checks []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checks))
	assert.Len(t, checks, 1, "the rejected record must not be stored")
}

func TestAlarmEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)
	alarmsURL := "/api/machines/" + id.String() + "/alarms"

	w := doJSON(t, router, http.MethodPost, alarmsURL, gin.H{"name": "oil change", "interval_hours": 500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alarm struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alarm))

	w = doJSON(t, router, http.MethodPost, alarmsURL, gin.H{"name": "bad", "interval_hours": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 1200 hours against a 500-hour interval: two triggers, 200 remainder.
	tickURL := alarmsURL + "/" + alarm.ID.String() + "/tick"
	w = doJSON(t, router, http.MethodPost, tickURL, gin.H{"delta_hours": 1200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tick struct {
		Triggered        int     `json:"triggered"`
		AccumulatedHours float64 `json:"accumulated_hours"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tick))
	assert.Equal(t, 2, tick.Triggered)
	assert.Equal(t, 200.0, tick.AccumulatedHours)

	w = doJSON(t, router, http.MethodDelete, alarmsURL+"/"+alarm.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Ticking a deactivated alarm is a conflict.
	w = doJSON(t, router, http.MethodPost, tickURL, gin.H{"delta_hours": 100})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, alarmsURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alarms []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alarms))
	require.Len(t, alarms, 1)
	assert.Equal(t, false, alarms[0]["is_active"])
	assert.Equal(t, 2.0, alarms[0]["times_triggered"])
}

func TestEventEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createMachine(t, router)
	eventsURL := "/api/machines/" + id.String() + "/events"

	w := doJSON(t, router, http.MethodPost, eventsURL, gin.H{"description": "replaced hydraulic hose"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/machines/"+id.String()+"/status", gin.H{"status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, eventsURL+"?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Events []map[string]any `json:"events"`
		Total  int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Events, 2)
	// Newest first: the status change came after the manual event.
	assert.Equal(t, "system", page.Events[0]["kind"])
	assert.Equal(t, "manual", page.Events[1]["kind"])
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}
