package state

import (
	"github.com/vkngwrapper/memtrack/report"
)

// SignalSemaphore transitions a semaphore to Signaled for a signal
// submission or an acquired image. The semaphore must currently be Unset;
// an illegal transition is reported but still applied.
func (s *DeviceState) SignalSemaphore(semaphore Semaphore, apiName string) bool {
	current, found := s.semaphores.Get(semaphore)
	if !found {
		return false
	}

	skip := false
	if current != SemaphoreUnset {
		skip = s.reporter.Log(report.SeverityError, report.ObjectSemaphore, uint64(semaphore), report.CodeNone, PrefixSemaphore,
			"%s: semaphore must not be currently signaled or in a wait state", apiName)
	}
	s.semaphores.Put(semaphore, SemaphoreSignaled)
	return skip
}

// WaitSemaphore transitions a semaphore to Wait for a wait submission. The
// semaphore must currently be Signaled; an illegal transition is reported
// but still applied.
func (s *DeviceState) WaitSemaphore(semaphore Semaphore, apiName string) bool {
	current, found := s.semaphores.Get(semaphore)
	if !found {
		return false
	}

	skip := false
	if current != SemaphoreSignaled {
		skip = s.reporter.Log(report.SeverityError, report.ObjectSemaphore, uint64(semaphore), report.CodeNone, PrefixSemaphore,
			"%s: semaphore must be in signaled state before passing to pWaitSemaphores", apiName)
	}
	s.semaphores.Put(semaphore, SemaphoreWait)
	return skip
}

// RetireSemaphoreWait returns a waited-on semaphore to Unset once the
// submission carrying the wait has been handed to the driver.
func (s *DeviceState) RetireSemaphoreWait(semaphore Semaphore) {
	_, found := s.semaphores.Get(semaphore)
	if !found {
		return
	}
	s.semaphores.Put(semaphore, SemaphoreUnset)
}

func (s *DeviceState) SemaphoreState(semaphore Semaphore) (SemaphoreState, bool) {
	return s.semaphores.Get(semaphore)
}
