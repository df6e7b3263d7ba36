package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"callsync/internal/audit"
	"callsync/internal/config"
	"callsync/internal/presence"
	"callsync/internal/taskrouter"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// WorkerLister reads live worker state at call time.
type WorkerLister interface {
	Workers(ctx context.Context) ([]taskrouter.Worker, error)
}

// TaskCompleter closes out a task once its call has been redirected.
type TaskCompleter interface {
	CompleteTask(ctx context.Context, taskSID string) error
}

// Engine is the inbound-call state machine:
//
//	ARRIVED -> {BYPASSED | ENQUEUED}
//	ENQUEUED -> ASSIGNED -> REDIRECTED -> TASK_COMPLETE
//
// Policy for the no-online-users case: bypass and return. The enqueue
// branch still carries a trailing safety-net dial for the race where the
// last eligible worker disappears between the check and the enqueue.
type Engine struct {
	queues    []config.Queue
	fallback  string
	baseURL   string
	predicate presence.QueuePredicate

	workers WorkerLister
	tasks   TaskCompleter
	audit   *audit.Service
	log     *slog.Logger
}

type EngineDeps struct {
	Queues         []config.Queue
	FallbackNumber string
	BaseURL        string
	Predicate      presence.QueuePredicate
	Workers        WorkerLister
	Tasks          TaskCompleter
	Audit          *audit.Service
	Log            *slog.Logger
}

func NewEngine(d EngineDeps) *Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		queues:    d.Queues,
		fallback:  d.FallbackNumber,
		baseURL:   d.BaseURL,
		predicate: d.Predicate,
		workers:   d.Workers,
		tasks:     d.Tasks,
		audit:     d.Audit,
		log:       log,
	}
}

// RouteInbound decides what happens to a call that arrived on toNumber.
// It never returns an error: a broken downstream call degrades to a bypass
// or fallback dial, because an unhandled failure here strands a live call.
func (e *Engine) RouteInbound(ctx context.Context, toNumber string) Decision {
	q, ok := e.queueByNumber(toNumber)
	if !ok {
		// Should not occur in correct configuration.
		e.log.Error("dialed number not in queue configuration", "to", toNumber)
		e.audit.Record(ctx, audit.Event{
			Type:         audit.EventCallBypassed,
			DialedNumber: toNumber,
			Message:      "unmapped number, dialed fallback",
		})
		return Decision{Action: ActionFallback, DialNumber: e.fallback, Reason: "unmapped_number"}
	}

	if !e.hasReachableWorker(ctx, q) {
		e.audit.Record(ctx, audit.Event{
			Type:         audit.EventCallBypassed,
			DialedNumber: toNumber,
			Message:      "no online users, dialed group number " + q.CloseNumber,
		})
		return Decision{Action: ActionBypass, Queue: q, DialNumber: q.CloseNumber, Reason: "no_online_users"}
	}

	payload, _ := sjson.Set("{}", "to_number", toNumber)
	e.audit.Record(ctx, audit.Event{
		Type:         audit.EventCallEnqueued,
		DialedNumber: toNumber,
		Metadata:     payload,
	})
	return Decision{
		Action:          ActionEnqueue,
		Queue:           q,
		TaskPayload:     payload,
		SafetyNetNumber: e.fallback,
		Reason:          "online_user_available",
	}
}

// OnAssignment handles the distribution layer's assignment callback for a
// queued task. The instruction redirects the call leg through this process
// so the CRM group number sees the original caller id.
func (e *Engine) OnAssignment(ctx context.Context, taskSID, taskAttributes string) (AssignmentInstruction, error) {
	callSID := gjson.Get(taskAttributes, "call_sid").String()
	toNumber := gjson.Get(taskAttributes, "to_number").String()
	if callSID == "" || toNumber == "" {
		return AssignmentInstruction{}, fmt.Errorf("routing: task %s attributes missing call_sid or to_number", taskSID)
	}

	q, ok := e.queueByNumber(toNumber)
	if !ok {
		return AssignmentInstruction{}, fmt.Errorf("routing: task %s carries unmapped number %s", taskSID, toNumber)
	}

	v := url.Values{
		"task_id":      {taskSID},
		"phone_number": {q.CloseNumber},
	}
	return AssignmentInstruction{
		Instruction: "redirect",
		CallSID:     callSID,
		URL:         e.baseURL + "/twilio/redirect-task?" + v.Encode(),
		Accept:      true,
	}, nil
}

// OnRedirect executes the redirect leg: the originating task is marked
// completed first so the accepting worker is not left occupied by a task
// that will never close, then the resolved number is dialed. An empty
// number degrades to an open dial.
func (e *Engine) OnRedirect(ctx context.Context, taskSID, phoneNumber string) string {
	if taskSID != "" {
		if err := e.tasks.CompleteTask(ctx, taskSID); err != nil {
			e.log.Error("task completion failed", "task_sid", taskSID, "err", err)
		} else {
			e.audit.Record(ctx, audit.Event{Type: audit.EventTaskCompleted, TaskSID: taskSID})
		}
	}
	if phoneNumber == "" {
		e.log.Error("redirect without a resolvable number", "task_sid", taskSID)
	} else {
		e.audit.Record(ctx, audit.Event{
			Type:         audit.EventCallRedirected,
			TaskSID:      taskSID,
			DialedNumber: phoneNumber,
		})
	}
	return phoneNumber
}

func (e *Engine) queueByNumber(number string) (config.Queue, bool) {
	for _, q := range e.queues {
		if q.TwilioNumber == number {
			return q, true
		}
	}
	return config.Queue{}, false
}

// hasReachableWorker is the online-check: at least one worker whose groups
// attribute contains the queue's group id has a non-offline activity.
func (e *Engine) hasReachableWorker(ctx context.Context, q config.Queue) bool {
	workers, err := e.workers.Workers(ctx)
	if err != nil {
		// Degrade to bypass; the CRM side can still take a voicemail.
		e.log.Error("worker fetch failed during online check", "group_id", q.GroupID, "err", err)
		return false
	}
	for _, w := range workers {
		if !inGroup(taskrouter.GroupIDs(w.Attributes), q.GroupID) {
			continue
		}
		if e.predicate.Reachable(presence.ParseActivity(w.ActivityName)) {
			return true
		}
	}
	return false
}

func inGroup(groups []string, groupID string) bool {
	for _, g := range groups {
		if g == groupID {
			return true
		}
	}
	return false
}
