package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML response builder. It intentionally avoids any provider SDK
// dependency; only the verbs this engine emits are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  string   `xml:",chardata"`
}

type twimlEnqueue struct {
	XMLName     xml.Name   `xml:"Enqueue"`
	WorkflowSid string     `xml:"workflowSid,attr,omitempty"`
	WaitURL     string     `xml:"waitUrl,attr,omitempty"`
	Task        *twimlTask `xml:"Task,omitempty"`
}

type twimlTask struct {
	Payload string `xml:",chardata"`
}

type twimlGather struct {
	XMLName   xml.Name   `xml:"Gather"`
	NumDigits int        `xml:"numDigits,attr"`
	Action    string     `xml:"action,attr"`
	Method    string     `xml:"method,attr"`
	Say       *twimlSay  `xml:"Say,omitempty"`
	Play      *twimlPlay `xml:"Play,omitempty"`
}

type twimlSay struct {
	Text string `xml:",chardata"`
}

type twimlPlay struct {
	URL string `xml:",chardata"`
}

type twimlLeave struct {
	XMLName xml.Name `xml:"Leave"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response accumulates TwiML verbs in order.
type Response struct {
	verbs []any
}

// Dial adds a dial verb. An empty number renders an open <Dial/>, the
// defensive no-op leg.
func (r *Response) Dial(number string) *Response {
	r.verbs = append(r.verbs, twimlDial{Number: number})
	return r
}

// Enqueue places the call into the shared workflow, attaching the opaque
// task payload and the wait-experience URL.
func (r *Response) Enqueue(workflowSID, waitURL, taskPayload string) *Response {
	e := twimlEnqueue{WorkflowSid: workflowSID, WaitURL: waitURL}
	if taskPayload != "" {
		e.Task = &twimlTask{Payload: taskPayload}
	}
	r.verbs = append(r.verbs, e)
	return r
}

// GatherAnyKey collects a single digit at any time, speaking the prompt and
// then playing hold audio.
func (r *Response) GatherAnyKey(action, prompt, playURL string) *Response {
	g := twimlGather{NumDigits: 1, Action: action, Method: "POST"}
	if prompt != "" {
		g.Say = &twimlSay{Text: prompt}
	}
	if playURL != "" {
		g.Play = &twimlPlay{URL: playURL}
	}
	r.verbs = append(r.verbs, g)
	return r
}

// Leave exits the current queue.
func (r *Response) Leave() *Response {
	r.verbs = append(r.verbs, twimlLeave{})
	return r
}

// Hangup terminates the call.
func (r *Response) Hangup() *Response {
	r.verbs = append(r.verbs, twimlHangup{})
	return r
}

// Render serializes the response document.
func (r *Response) Render() (string, error) {
	doc := twimlResponse{Verbs: r.verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
