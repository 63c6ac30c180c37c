package buildstate

import (
	"fmt"
	"sync"

	"github.com/dopamine-pm/dopamine/internal/log"
)

// Stage is a node in the build-state prerequisite graph. Check
// observes disk to decide whether the stage is already reached; Do
// performs the work to reach it.
type Stage interface {
	Name() string
	Prerequisites() []Stage
	Check() (bool, error)
	Do() error
}

// Reach recurses into s's prerequisites, then reaches s itself: if
// Check reports true it returns; otherwise it calls Do and
// re-verifies with Check. Reach fails if the stage still isn't
// reached after Do succeeds.
func Reach(s Stage) error {
	for _, p := range s.Prerequisites() {
		if err := Reach(p); err != nil {
			return err
		}
	}

	ok, err := s.Check()
	if err != nil {
		return fmt.Errorf("buildstate: %s: check: %w", s.Name(), err)
	}
	if ok {
		logOnce(s)
		return nil
	}

	if err := s.Do(); err != nil {
		return fmt.Errorf("buildstate: %s: %w", s.Name(), err)
	}

	ok, err = s.Check()
	if err != nil {
		return fmt.Errorf("buildstate: %s: check after do: %w", s.Name(), err)
	}
	if !ok {
		return fmt.Errorf("buildstate: %s: not reached after do()", s.Name())
	}

	logOnce(s)
	return nil
}

// onceLogger is implemented by stages that want Reach's exactly-once-
// per-process completion log. Stages embed loggedStage to get it for
// free; a stage without it is simply not logged.
type onceLogger interface {
	markLogged(name string, logger log.Logger)
}

func logOnce(s Stage) {
	if l, ok := s.(onceLogger); ok {
		l.markLogged(s.Name(), log.Default())
	}
}

// loggedStage gives a concrete Stage a sync.Once-guarded completion
// log line, so Reach logs each stage at most once per process even if
// it is reached from more than one dependent.
type loggedStage struct {
	once sync.Once
}

func (l *loggedStage) markLogged(name string, logger log.Logger) {
	l.once.Do(func() {
		logger.Info("stage reached", "stage", name)
	})
}
