package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

type fakeResponses struct {
	errs  []error
	resp  *responses.Response
	calls int
	last  responses.ResponseNewParams
}

func (f *fakeResponses) New(_ context.Context, body responses.ResponseNewParams, _ ...option.RequestOption) (*responses.Response, error) {
	f.last = body
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.resp, nil
}

func textResponse(t *testing.T, text string) *responses.Response {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":     "resp_1",
		"object": "response",
		"output": []any{
			map[string]any{
				"type":    "message",
				"role":    "assistant",
				"status":  "completed",
				"content": []any{map[string]any{"type": "output_text", "text": text}},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var r responses.Response
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return &r
}

// The retry tests shorten package-level waits, so they do not run in parallel.
func withShortWaits(t *testing.T) {
	t.Helper()

	rl, se := rateLimitWaitTimes, serverErrorWaitTimes
	rateLimitWaitTimes = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	serverErrorWaitTimes = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() {
		rateLimitWaitTimes, serverErrorWaitTimes = rl, se
	})
}

func TestCallWithRetry_RetriesTransientErrors(t *testing.T) {
	withShortWaits(t)

	want := textResponse(t, "{}")
	f := &fakeResponses{
		errs: []error{errors.New("429 Too Many Requests"), errors.New("500 Internal Server Error")},
		resp: want,
	}
	got, err := CallWithRetry(context.Background(), f, responses.ResponseNewParams{})
	if err != nil {
		t.Fatalf("CallWithRetry: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected response")
	}
	if f.calls != 3 {
		t.Fatalf("calls=%d, want 3", f.calls)
	}
}

func TestCallWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	withShortWaits(t)

	last := errors.New("503 server_error")
	f := &fakeResponses{errs: []error{errors.New("rate limit"), errors.New("rate limit"), last}}
	_, err := CallWithRetry(context.Background(), f, responses.ResponseNewParams{})
	if !errors.Is(err, last) {
		t.Fatalf("err=%v, want last error", err)
	}
	if f.calls != 3 {
		t.Fatalf("calls=%d, want 3", f.calls)
	}
}

func TestCallWithRetry_PermanentErrorNotRetried(t *testing.T) {
	withShortWaits(t)

	perm := errors.New("401 invalid api key")
	f := &fakeResponses{errs: []error{perm}}
	_, err := CallWithRetry(context.Background(), f, responses.ResponseNewParams{})
	if !errors.Is(err, perm) {
		t.Fatalf("err=%v, want %v", err, perm)
	}
	if f.calls != 1 {
		t.Fatalf("calls=%d, want 1", f.calls)
	}
}

func TestCallWithRetry_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeResponses{errs: []error{errors.New("429")}}
	_, err := CallWithRetry(ctx, f, responses.ResponseNewParams{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestGenerateSchema_StrictObject(t *testing.T) {
	t.Parallel()

	type sample struct {
		B string   `json:"b"`
		A []string `json:"a"`
	}
	s := GenerateSchema[sample]()
	if s["type"] != "object" {
		t.Fatalf("type=%v, want object", s["type"])
	}
	if s["additionalProperties"] != false {
		t.Fatalf("additionalProperties=%v, want false", s["additionalProperties"])
	}
	req, ok := s["required"].([]string)
	if !ok || len(req) != 2 || req[0] != "a" || req[1] != "b" {
		t.Fatalf("required=%v, want [a b]", s["required"])
	}
}
