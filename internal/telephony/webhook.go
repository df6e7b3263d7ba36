package telephony

import (
	"errors"
	"net/http"
	"strings"
)

// InboundForm captures the subset of voice webhook fields the routing path
// cares about. The provider sends application/x-www-form-urlencoded.
type InboundForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string
}

func ParseInboundCall(r *http.Request) (InboundForm, error) {
	if err := r.ParseForm(); err != nil {
		return InboundForm{}, err
	}
	f := InboundForm{
		CallSid:    r.PostFormValue("CallSid"),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Direction:  r.PostFormValue("Direction"),
		CallStatus: r.PostFormValue("CallStatus"),
	}
	if f.To == "" {
		return InboundForm{}, errors.New("telephony: inbound call without To number")
	}
	return f, nil
}

// AssignmentForm is the distribution layer's task-assignment callback.
// TaskAttributes is the raw JSON attached at enqueue time, with the
// provider's call_sid merged in.
type AssignmentForm struct {
	TaskSid        string
	TaskAttributes string
	WorkerSid      string
}

func ParseAssignmentCallback(r *http.Request) (AssignmentForm, error) {
	if err := r.ParseForm(); err != nil {
		return AssignmentForm{}, err
	}
	f := AssignmentForm{
		TaskSid:        r.PostFormValue("TaskSid"),
		TaskAttributes: r.PostFormValue("TaskAttributes"),
		WorkerSid:      r.PostFormValue("WorkerSid"),
	}
	if f.TaskSid == "" || f.TaskAttributes == "" {
		return AssignmentForm{}, errors.New("telephony: assignment callback missing task sid or attributes")
	}
	return f, nil
}
