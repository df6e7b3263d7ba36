package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"callsync/internal/auth"
	"callsync/internal/closecrm"
	"callsync/internal/dedupe"
	"callsync/internal/reporting"
	"callsync/internal/syncer"
	"callsync/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth    *auth.Manager
	Syncer  *syncer.Syncer
	Dedupe  dedupe.Store
	Reports *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues an access token for the ops API.
//
// NOTE: This is a bootstrap-only endpoint and is never registered in
// production. Real deployments mint tokens out of band.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	tok, err := h.Auth.IssueAccess(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

// --- CRM webhooks ---

// CloseMembershipWebhook reacts to organization membership changes:
// activations provision a worker, deactivations retire one. Anything else
// is treated as a hint that the directory drifted and triggers a full pass.
func (h Handlers) CloseMembershipWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	ev, err := closecrm.ParseWebhook(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}
	if h.alreadySeen(c, ev.ID) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	userID := ev.SubjectUserID()
	switch ev.Action {
	case closecrm.ActionActivated, closecrm.ActionCreated:
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event has no user_id"})
			return
		}
		if err := h.Syncer.ActivateUser(c.Request.Context(), userID); err != nil {
			log.Error("membership activation failed", "user_id", userID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "activation failed"})
			return
		}
	case closecrm.ActionDeactivated:
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event has no user_id"})
			return
		}
		if err := h.Syncer.DeactivateUser(c.Request.Context(), userID); err != nil {
			log.Error("membership deactivation failed", "user_id", userID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "deactivation failed"})
			return
		}
	default:
		h.runSync(c, reporting.TriggerWebhook)
		h.markSeen(c, ev.ID)
		return
	}
	h.markSeen(c, ev.ID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CloseCallEventWebhook reacts to call-activity changes. The event body is
// only a nudge; the pass re-reads everything from the source of truth, so
// a redelivered or out-of-order event can never apply stale state.
func (h Handlers) CloseCallEventWebhook(c *gin.Context) {
	ev, err := closecrm.ParseWebhook(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}
	if h.alreadySeen(c, ev.ID) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	h.runSync(c, reporting.TriggerWebhook)
	h.markSeen(c, ev.ID)
}

// --- Admin ---

// AdminTriggerSync runs a full pass on demand and returns its report.
func (h Handlers) AdminTriggerSync(c *gin.Context) {
	h.runSync(c, reporting.TriggerManual)
}

// AdminSyncReports lists recent passes, newest first.
func (h Handlers) AdminSyncReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Reports.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": entries})
}

// AdminSyncSummary aggregates sync health over a window. Defaults to the
// last 24 hours.
func (h Handlers) AdminSyncSummary(c *gin.Context) {
	now := time.Now().UTC()
	req := reporting.SyncSummaryRequest{
		Range:   reporting.TimeRange{From: now.Add(-24 * time.Hour), To: now},
		Trigger: c.Query("trigger"),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		req.Range.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		req.Range.To = t
	}

	out, err := h.Reports.Summary(c.Request.Context(), req)
	if err == reporting.ErrInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- helpers ---

// alreadySeen consults the dedup store. Store failures count as unseen:
// the passes are idempotent, so processing twice is safe and dropping an
// event is not.
func (h Handlers) alreadySeen(c *gin.Context, eventID string) bool {
	if h.Dedupe == nil || eventID == "" {
		return false
	}
	seen, err := h.Dedupe.Seen(c.Request.Context(), eventID)
	if err != nil {
		logger.FromGin(c).Warn("dedup lookup failed", "event_id", eventID, "err", err)
		return false
	}
	return seen
}

// markSeen records an event id only after its handler succeeded. A failed
// delivery is left unmarked so the sender's redelivery gets a real retry
// instead of a duplicate short-circuit.
func (h Handlers) markSeen(c *gin.Context, eventID string) {
	if h.Dedupe == nil || eventID == "" {
		return
	}
	if err := h.Dedupe.Mark(c.Request.Context(), eventID); err != nil {
		logger.FromGin(c).Warn("dedup mark failed", "event_id", eventID, "err", err)
	}
}

func (h Handlers) runSync(c *gin.Context, trigger string) {
	log := logger.FromGin(c)

	rep := h.Syncer.FullSync(c.Request.Context())
	if h.Reports != nil {
		if err := h.Reports.Record(c.Request.Context(), trigger, rep); err != nil {
			log.Warn("sync report archive failed", "err", err)
		}
	}
	if !rep.Clean() {
		log.Warn("sync pass finished with failures", "trigger", trigger, "fetch_errors", len(rep.FetchErrors), "errors", len(rep.Errors))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "report": rep})
}
