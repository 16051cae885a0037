package memtrack

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// CreateSemaphore forwards the creation and registers the semaphore in the
// Unset state.
func (t *Tracker) CreateSemaphore(callbacks *driver.AllocationCallbacks) (state.Semaphore, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateSemaphore")

	semaphore, res, err := t.driver.CreateSemaphore(callbacks)
	if err != nil {
		return semaphore, res, err
	}

	t.lock.Lock()
	t.state.AddSemaphore(semaphore)
	t.lock.Unlock()
	return semaphore, res, nil
}

func (t *Tracker) DestroySemaphore(semaphore state.Semaphore, callbacks *driver.AllocationCallbacks) {
	t.logger.Debug("Tracker::DestroySemaphore")

	t.lock.Lock()
	t.state.RemoveSemaphore(semaphore)
	t.lock.Unlock()

	t.driver.DestroySemaphore(semaphore, callbacks)
}
