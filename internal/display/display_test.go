package display

import (
	"errors"
	"sync"
	"testing"

	"github.com/kjstillabower/weather-display-service/internal/pipeline"
)

func TestStore_EmptySnapshot(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	if snap.Current != nil || snap.LastFailure != nil {
		t.Errorf("Snapshot() = %+v, want empty", snap)
	}
}

func TestStore_PublishThenFailKeepsScreen(t *testing.T) {
	s := NewStore()
	s.Publish(pipeline.Result{CycleID: "a", Generation: 1})
	s.Fail(pipeline.Failure{CycleID: "b", Generation: 2, Outcome: pipeline.OutcomeOffline, Err: pipeline.ErrOffline})

	snap := s.Snapshot()
	if snap.Current == nil || snap.Current.CycleID != "a" {
		t.Fatalf("Current = %+v, want cycle a still shown", snap.Current)
	}
	if snap.LastFailure == nil || snap.LastFailure.CycleID != "b" {
		t.Fatalf("LastFailure = %+v, want cycle b", snap.LastFailure)
	}
	if !errors.Is(snap.LastFailure.Err, pipeline.ErrOffline) {
		t.Errorf("LastFailure.Err = %v, want ErrOffline", snap.LastFailure.Err)
	}
}

func TestStore_PublishClearsFailure(t *testing.T) {
	s := NewStore()
	s.Fail(pipeline.Failure{CycleID: "a", Generation: 1})
	s.Publish(pipeline.Result{CycleID: "b", Generation: 2})

	snap := s.Snapshot()
	if snap.LastFailure != nil {
		t.Errorf("LastFailure = %+v, want nil after newer success", snap.LastFailure)
	}
	if snap.Current == nil || snap.Current.CycleID != "b" {
		t.Errorf("Current = %+v, want cycle b", snap.Current)
	}
}

func TestStore_IgnoresStaleGenerations(t *testing.T) {
	s := NewStore()
	s.Publish(pipeline.Result{CycleID: "new", Generation: 3})
	s.Publish(pipeline.Result{CycleID: "old", Generation: 2})
	s.Fail(pipeline.Failure{CycleID: "older", Generation: 1})

	snap := s.Snapshot()
	if snap.Current.CycleID != "new" {
		t.Errorf("Current = %q, want new", snap.Current.CycleID)
	}
	if snap.LastFailure != nil {
		t.Errorf("LastFailure = %+v, want stale failure ignored", snap.LastFailure)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Publish(pipeline.Result{CycleID: "a", Generation: 1})
	snap := s.Snapshot()
	snap.Current.CycleID = "mutated"

	if got := s.Snapshot().Current.CycleID; got != "a" {
		t.Errorf("stored CycleID = %q after caller mutation, want a", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Publish(pipeline.Result{CycleID: "a", Generation: 1})
	s.Fail(pipeline.Failure{CycleID: "b", Generation: 2})
	s.Clear()

	snap := s.Snapshot()
	if snap.Current != nil || snap.LastFailure != nil {
		t.Errorf("Snapshot() after Clear = %+v, want empty", snap)
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	for g := uint64(1); g <= 100; g++ {
		s.Publish(pipeline.Result{Generation: g})
	}
	wg.Wait()
	if got := s.Snapshot().Current.Generation; got != 100 {
		t.Errorf("Generation = %d, want 100", got)
	}
}
