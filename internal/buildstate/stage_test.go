package buildstate

import "testing"

// countingStage reaches immediately on its second Check call, counting
// how many times Do actually ran.
type countingStage struct {
	loggedStage
	name   string
	prereq []Stage
	checks int
	doCalls int
}

func (s *countingStage) Name() string          { return s.name }
func (s *countingStage) Prerequisites() []Stage { return s.prereq }

func (s *countingStage) Check() (bool, error) {
	s.checks++
	return s.doCalls > 0, nil
}

func (s *countingStage) Do() error {
	s.doCalls++
	return nil
}

func TestReach_CallsDoOnceThenIdempotent(t *testing.T) {
	s := &countingStage{name: "leaf"}

	if err := Reach(s); err != nil {
		t.Fatalf("Reach: %v", err)
	}
	if s.doCalls != 1 {
		t.Fatalf("doCalls = %d, want 1", s.doCalls)
	}

	if err := Reach(s); err != nil {
		t.Fatalf("second Reach: %v", err)
	}
	if s.doCalls != 1 {
		t.Fatalf("doCalls after second Reach = %d, want 1 (already reached)", s.doCalls)
	}
}

func TestReach_PrerequisitesReachedFirst(t *testing.T) {
	parent := &countingStage{name: "parent"}
	child := &countingStage{name: "child", prereq: []Stage{parent}}

	if err := Reach(child); err != nil {
		t.Fatalf("Reach: %v", err)
	}
	if parent.doCalls != 1 {
		t.Fatalf("parent.doCalls = %d, want 1", parent.doCalls)
	}
	if child.doCalls != 1 {
		t.Fatalf("child.doCalls = %d, want 1", child.doCalls)
	}
}

type failingDoStage struct {
	loggedStage
}

func (s *failingDoStage) Name() string          { return "fails" }
func (s *failingDoStage) Prerequisites() []Stage { return nil }
func (s *failingDoStage) Check() (bool, error)  { return false, nil }
func (s *failingDoStage) Do() error             { return nil } // Do "succeeds" but leaves Check false

func TestReach_NotReachedAfterDo(t *testing.T) {
	s := &failingDoStage{}
	err := Reach(s)
	if err == nil {
		t.Fatal("expected error when Check stays false after Do")
	}
}

type enforceTarget struct {
	loggedStage
	reached bool
}

func (s *enforceTarget) Name() string          { return "target" }
func (s *enforceTarget) Prerequisites() []Stage { return nil }
func (s *enforceTarget) Check() (bool, error)  { return s.reached, nil }
func (s *enforceTarget) Do() error             { s.reached = true; return nil }

func TestEnforcedStage_DoReturnsStateNotReached(t *testing.T) {
	inner := &enforceTarget{}
	e := &EnforcedStage{Stage: inner, Message: "run `dop build` first"}

	err := Reach(e)
	if err == nil {
		t.Fatal("expected StateNotReached error")
	}

	var notReached *StateNotReached
	found := false
	for cause := err; cause != nil; cause = unwrap(cause) {
		if nr, ok := cause.(*StateNotReached); ok {
			notReached = nr
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a wrapped *StateNotReached, got %v", err)
	}
	if notReached.Stage != "target" {
		t.Fatalf("Stage = %q, want %q", notReached.Stage, "target")
	}
}

func unwrap(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return nil
}
