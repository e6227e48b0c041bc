package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type recordingComponent struct {
	name     string
	startErr error
	log      *[]string
}

func (c *recordingComponent) Start(context.Context) error {
	*c.log = append(*c.log, "start:"+c.name)
	return c.startErr
}

func (c *recordingComponent) Stop(context.Context) error {
	*c.log = append(*c.log, "stop:"+c.name)
	return nil
}

func TestRuntimeStopsInReverseOrder(t *testing.T) {
	t.Parallel()

	var log []string
	runtime := NewRuntime(
		&recordingComponent{name: "a", log: &log},
		&recordingComponent{name: "b", log: &log},
	)

	ctx := context.Background()
	if err := runtime.Start(ctx); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	if err := runtime.Stop(ctx); err != nil {
		t.Fatalf("stop runtime: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("unexpected log: %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("unexpected log order: %v", log)
		}
	}
}

func TestRuntimeRollsBackStartedComponentsOnFailure(t *testing.T) {
	t.Parallel()

	var log []string
	failErr := errors.New("boom")
	runtime := NewRuntime(
		&recordingComponent{name: "a", log: &log},
		&recordingComponent{name: "b", startErr: failErr, log: &log},
		&recordingComponent{name: "c", log: &log},
	)

	err := runtime.Start(context.Background())
	if err == nil || !errors.Is(err, failErr) {
		t.Fatalf("expected start failure, got %v", err)
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("unexpected log: %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("unexpected log order: %v", log)
		}
	}
}
