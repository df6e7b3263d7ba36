package main

import (
	"callsync/internal/auth"
	"callsync/internal/config"
	"callsync/internal/dedupe"
	"callsync/internal/httpapi"
	"callsync/internal/rbac"
	"callsync/internal/reporting"
	"callsync/internal/routing"
	"callsync/internal/syncer"
	"callsync/internal/telephony"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg     config.Config
	auth    *auth.Manager
	engine  *routing.Engine
	syncer  *syncer.Syncer
	dedupe  dedupe.Store
	reports *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Telephony provider webhooks (public). Every route here answers a
	// live call and must return TwiML even on failure.
	// NOTE: These endpoints should be protected by Twilio signature
	// validation in production.
	{
		h := telephony.Handlers{
			Engine:       d.engine,
			WorkflowSID:  d.cfg.Twilio.WorkflowSID,
			WaitURL:      d.cfg.App.BaseURL + "/twilio/wait-experience",
			HoldMusicURL: d.cfg.Twilio.HoldMusicURL,
			ExitQueueURL: d.cfg.App.BaseURL + "/twilio/exit-queue",
		}
		tw := r.Group("/twilio")
		tw.POST("/inbound", h.InboundCall)
		tw.POST("/assignment", h.AssignmentCallback)
		tw.POST("/redirect-task", h.RedirectTask)
		tw.POST("/wait-experience", h.WaitExperience)
		tw.POST("/exit-queue", h.ExitQueue)
	}

	api := httpapi.Handlers{
		Auth:    d.auth,
		Syncer:  d.syncer,
		Dedupe:  d.dedupe,
		Reports: d.reports,
	}

	// CRM webhooks (public). Redeliveries are handled by the dedup store,
	// and the passes they trigger are idempotent.
	// NOTE: These endpoints should be protected by Close signature
	// validation in production.
	closeGroup := r.Group("/close")
	closeGroup.POST("/membership", api.CloseMembershipWebhook)
	closeGroup.POST("/call-event", api.CloseCallEventWebhook)

	// The ops API is only registered when auth is configured; running
	// unauthenticated admin routes is worse than running none.
	if d.auth == nil {
		return
	}

	if !d.cfg.IsProduction() {
		r.POST("/v1/auth/login", api.Login)
	}

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	{
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleAdmin))
		{
			admin.POST("/sync", api.AdminTriggerSync)
			admin.GET("/sync-reports", api.AdminSyncReports)
			admin.GET("/sync-summary", api.AdminSyncSummary)
		}
	}
}
