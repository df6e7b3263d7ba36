package telephony

import (
	"net/http"

	"callsync/internal/routing"
	"callsync/pkg/logger"

	"github.com/gin-gonic/gin"
)

const waitPrompt = "Thanks for calling in. Press any key at any time to exit the queue and be redirected to a voicemail box."

// Handlers adapts the telephony provider's webhooks to the routing engine
// and writes TwiML back. No business logic lives here.
//
// Every failure path still answers with valid TwiML (or a neutral JSON
// body): a 5xx on these routes strands a live telephone call.
type Handlers struct {
	Engine *routing.Engine

	WorkflowSID  string
	WaitURL      string
	HoldMusicURL string
	ExitQueueURL string
}

// InboundCall is the voice webhook: the ARRIVED state.
func (h Handlers) InboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseInboundCall(c.Request)
	if err != nil {
		log.Warn("inbound call parse failed", "err", err)
		h.respondHangup(c)
		return
	}

	d := h.Engine.RouteInbound(c.Request.Context(), form.To)
	log.Info("inbound call routed", "call_sid", form.CallSid, "to", form.To, "action", string(d.Action), "reason", d.Reason)

	resp := &Response{}
	switch d.Action {
	case routing.ActionEnqueue:
		resp.Enqueue(h.WorkflowSID, h.WaitURL, d.TaskPayload)
		resp.Dial(d.SafetyNetNumber)
	case routing.ActionBypass, routing.ActionFallback:
		resp.Dial(d.DialNumber)
	default:
		resp.Hangup()
	}
	h.respond(c, resp)
}

// AssignmentCallback is the ASSIGNED state: answer with the redirect
// instruction so the original caller id survives the handoff.
func (h Handlers) AssignmentCallback(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseAssignmentCallback(c.Request)
	if err != nil {
		log.Warn("assignment callback parse failed", "err", err)
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	ins, err := h.Engine.OnAssignment(c.Request.Context(), form.TaskSid, form.TaskAttributes)
	if err != nil {
		log.Error("assignment handling failed", "task_sid", form.TaskSid, "err", err)
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, ins)
}

// RedirectTask is the REDIRECTED state: complete the task, then dial the
// resolved group number.
func (h Handlers) RedirectTask(c *gin.Context) {
	taskID := c.Query("task_id")
	number := c.Query("phone_number")

	dial := h.Engine.OnRedirect(c.Request.Context(), taskID, number)

	resp := &Response{}
	resp.Dial(dial)
	h.respond(c, resp)
}

// WaitExperience plays hold treatment while the caller sits in the queue
// and offers a keypress escape to voicemail.
func (h Handlers) WaitExperience(c *gin.Context) {
	resp := &Response{}
	resp.GatherAnyKey(h.ExitQueueURL, waitPrompt, h.HoldMusicURL)
	h.respond(c, resp)
}

// ExitQueue handles the keypress: leave the queue, equivalent terminal
// outcome to a bypass.
func (h Handlers) ExitQueue(c *gin.Context) {
	resp := &Response{}
	resp.Leave()
	h.respond(c, resp)
}

func (h Handlers) respond(c *gin.Context, resp *Response) {
	xml, err := resp.Render()
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		h.respondHangup(c)
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}

func (h Handlers) respondHangup(c *gin.Context) {
	xml, err := (&Response{}).Hangup().Render()
	if err != nil {
		c.String(http.StatusOK, "")
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}
