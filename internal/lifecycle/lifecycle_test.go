package lifecycle

import "testing"

func TestIsShuttingDown_DefaultFalse(t *testing.T) {
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false by default")
	}
}

func TestSetShuttingDown_True(t *testing.T) {
	SetShuttingDown(true)
	defer SetShuttingDown(false)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
}

func TestSetShuttingDown_False(t *testing.T) {
	SetShuttingDown(true)
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false), want false")
	}
}

func TestTeardown_RunsHooksOnceInReverse(t *testing.T) {
	var td Teardown
	var order []int
	td.OnTeardown(func() { order = append(order, 1) })
	td.OnTeardown(func() { order = append(order, 2) })

	td.Run()
	td.Run()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("hook order = %v, want [2 1] exactly once", order)
	}
}

func TestTeardown_LateHookRunsImmediately(t *testing.T) {
	var td Teardown
	td.Run()

	ran := false
	td.OnTeardown(func() { ran = true })
	if !ran {
		t.Error("hook registered after Run did not fire")
	}
}
