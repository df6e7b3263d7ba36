package telephony

import (
	"strings"
	"testing"
)

func TestRender_EnqueueWithTaskThenSafetyNetDial(t *testing.T) {
	resp := &Response{}
	resp.Enqueue("WF1", "/twilio/wait", `{"to_number":"+15550001"}`)
	resp.Dial("+15559999")

	xml, err := resp.Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{
		`workflowSid="WF1"`,
		`waitUrl="/twilio/wait"`,
		`<Task>{&#34;to_number&#34;:&#34;+15550001&#34;}</Task>`,
		`<Dial>+15559999</Dial>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in:\n%s", want, xml)
		}
	}
	if strings.Index(xml, "<Enqueue") > strings.Index(xml, "<Dial") {
		t.Fatalf("enqueue must precede the safety-net dial:\n%s", xml)
	}
}

func TestRender_OpenDial(t *testing.T) {
	xml, err := (&Response{}).Dial("").Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, "<Dial>") {
		t.Fatalf("expected open dial verb:\n%s", xml)
	}
}

func TestRender_GatherWithSayAndPlay(t *testing.T) {
	xml, err := (&Response{}).GatherAnyKey("/twilio/exit-queue", "press any key", "https://cdn.example.com/hold.mp3").Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{
		`numDigits="1"`,
		`action="/twilio/exit-queue"`,
		`method="POST"`,
		`<Say>press any key</Say>`,
		`<Play>https://cdn.example.com/hold.mp3</Play>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in:\n%s", want, xml)
		}
	}
}

func TestRender_Leave(t *testing.T) {
	xml, err := (&Response{}).Leave().Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, "<Leave") {
		t.Fatalf("expected leave verb:\n%s", xml)
	}
}
