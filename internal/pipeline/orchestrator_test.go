package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o := NewOrchestrator()
	t.Cleanup(o.Close)
	return o
}

// collect reads events until the outcome of id arrives.
func collect(t *testing.T, o *Orchestrator, id RequestID) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-o.Events():
			if !ok {
				t.Fatal("events closed early")
			}
			events = append(events, ev)
			if ev.RequestID() != id {
				continue
			}
			switch ev.(type) {
			case ResultEvent, FailureEvent:
				return events
			}
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestOrchestrator_Result(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Start(context.Background())

	id, err := o.Submit(context.Background(), testBuffer(t, 8, 8), testParams(8, 8))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != 1 || o.Latest() != 1 {
		t.Errorf("first id: got %d (latest %d), want 1", id, o.Latest())
	}

	events := collect(t, o, id)
	last := -1
	for _, ev := range events[:len(events)-1] {
		pe, ok := ev.(ProgressEvent)
		if !ok {
			t.Fatalf("unexpected event before result: %#v", ev)
		}
		if pe.Percent < last {
			t.Errorf("progress decreased: %d after %d", pe.Percent, last)
		}
		last = pe.Percent
	}
	res, ok := events[len(events)-1].(ResultEvent)
	if !ok {
		t.Fatalf("final event: got %#v, want ResultEvent", events[len(events)-1])
	}
	if res.Buffer == nil || res.Buffer.Width != 8 {
		t.Errorf("result buffer: %+v", res.Buffer)
	}
}

func TestOrchestrator_DropsStaleEvents(t *testing.T) {
	o := newTestOrchestrator(t)

	// Both requests are queued before the worker starts, so every event of
	// the first is already stale when it is produced.
	first, err := o.Submit(context.Background(), testBuffer(t, 16, 16), testParams(16, 16))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := o.Submit(context.Background(), testBuffer(t, 8, 8), testParams(8, 8))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	o.Start(context.Background())
	for _, ev := range collect(t, o, second) {
		if ev.RequestID() != second {
			t.Errorf("stale event delivered: %#v", ev)
		}
	}
}

func TestOrchestrator_Failure(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Start(context.Background())

	id, err := o.Submit(context.Background(), testBuffer(t, 4, 4), testParams(8, 8))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	events := collect(t, o, id)
	fe, ok := events[len(events)-1].(FailureEvent)
	if !ok {
		t.Fatalf("final event: got %#v, want FailureEvent", events[len(events)-1])
	}
	if !errors.Is(fe.Err, ErrProcessingFailure) {
		t.Errorf("Err: got %v, want ErrProcessingFailure", fe.Err)
	}

	// The worker keeps serving after a failure.
	id, _ = o.Submit(context.Background(), testBuffer(t, 4, 4), testParams(4, 4))
	events = collect(t, o, id)
	if _, ok := events[len(events)-1].(ResultEvent); !ok {
		t.Errorf("request after failure: got %#v", events[len(events)-1])
	}
}

func TestOrchestrator_Process(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Start(context.Background())

	var progress []int
	out, err := o.Process(context.Background(), testBuffer(t, 8, 8), testParams(8, 8), func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out == nil || out.Height != 8 {
		t.Errorf("result: %+v", out)
	}
	if len(progress) == 0 || progress[len(progress)-1] != ProgressDone {
		t.Errorf("progress: %v", progress)
	}

	_, err = o.Process(context.Background(), testBuffer(t, 2, 2), testParams(3, 3), nil)
	if !errors.Is(err, ErrProcessingFailure) {
		t.Errorf("mismatched request: got %v, want ErrProcessingFailure", err)
	}
}

func TestOrchestrator_ProcessCanceled(t *testing.T) {
	o := newTestOrchestrator(t)
	// Not started: nothing will ever answer.

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Process(ctx, testBuffer(t, 4, 4), testParams(4, 4), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestOrchestrator_Closed(t *testing.T) {
	o := NewOrchestrator()
	o.Start(context.Background())
	o.Close()
	o.Close() // idempotent

	if _, err := o.Submit(context.Background(), testBuffer(t, 4, 4), testParams(4, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close: got %v, want ErrClosed", err)
	}
	if _, ok := <-o.Events(); ok {
		t.Error("Events should be closed after Close")
	}
}
