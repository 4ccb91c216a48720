package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"fleet-maintenance-backend/internal/mw"
	"fleet-maintenance-backend/internal/store"
)

// RouterOptions tunes the middleware in front of the API.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions)

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	caching := mw.NewResponseCache(opts.CacheTTL).Middleware()

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines", caching, handler.ListMachines)
		api.POST("/machines", caching, handler.CreateMachine)
		api.GET("/machines/:machine_id", caching, handler.GetMachine)

		api.POST("/machines/:machine_id/status", caching, handler.ChangeStatus)
		api.PUT("/machines/:machine_id/specs", caching, handler.UpdateSpecs)
		api.PUT("/machines/:machine_id/location", caching, handler.UpdateLocation)
		api.POST("/machines/:machine_id/provider", caching, handler.AssignProvider)
		api.DELETE("/machines/:machine_id/provider", caching, handler.RemoveProvider)

		api.GET("/machines/:machine_id/quick-checks", handler.ListQuickChecks)
		api.POST("/machines/:machine_id/quick-checks", caching, handler.RecordQuickCheck)

		api.GET("/machines/:machine_id/events", handler.ListEvents)
		api.POST("/machines/:machine_id/events", caching, handler.RecordEvent)

		api.GET("/machines/:machine_id/alarms", handler.ListAlarms)
		api.POST("/machines/:machine_id/alarms", caching, handler.AddAlarm)
		api.PUT("/machines/:machine_id/alarms/:alarm_id", caching, handler.UpdateAlarm)
		api.DELETE("/machines/:machine_id/alarms/:alarm_id", caching, handler.DeactivateAlarm)
		api.POST("/machines/:machine_id/alarms/:alarm_id/tick", caching, handler.TickAlarm)

		api.GET("/providers", caching, handler.ListProviders)
		api.POST("/providers", caching, handler.CreateProvider)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
