package memtrack

import (
	"time"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// CreateFence forwards the creation and records the create info, including
// the initial-signaled flag the submission check relies on.
func (t *Tracker) CreateFence(createInfo core1_0.FenceCreateInfo, callbacks *driver.AllocationCallbacks) (state.Fence, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateFence")

	fence, res, err := t.driver.CreateFence(createInfo, callbacks)
	if err != nil {
		return fence, res, err
	}

	t.lock.Lock()
	t.state.AddFence(fence, createInfo)
	t.lock.Unlock()
	return fence, res, nil
}

func (t *Tracker) DestroyFence(fence state.Fence, callbacks *driver.AllocationCallbacks) {
	t.logger.Debug("Tracker::DestroyFence")

	t.lock.Lock()
	t.state.RemoveFence(fence)
	t.lock.Unlock()

	t.driver.DestroyFence(fence, callbacks)
}

// ResetFences warns for every fence not currently signaled and clears the
// signaled flag on the rest. The batch is forwarded only when every fence
// passed.
func (t *Tracker) ResetFences(fences []state.Fence) (common.VkResult, error) {
	t.logger.Debug("Tracker::ResetFences")

	t.lock.Lock()
	skip := false
	for _, fence := range fences {
		if t.state.ResetFence(fence) {
			skip = true
		}
	}
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	return t.driver.ResetFences(fences)
}

// GetFenceStatus warns on already-signaled or never-submitted fences, then
// forwards. A successful status advances retirement tracking.
func (t *Tracker) GetFenceStatus(fence state.Fence) (common.VkResult, error) {
	t.logger.Debug("Tracker::GetFenceStatus")

	t.lock.Lock()
	skip := t.state.VerifyFenceStatus(fence, "GetFenceStatus")
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}

	res, err := t.driver.GetFenceStatus(fence)
	if res == core1_0.VKSuccess {
		t.lock.Lock()
		t.state.UpdateFenceTracking(fence)
		t.lock.Unlock()
	}
	return res, err
}

// WaitForFences verifies each fence's status, forwards the wait without the
// core lock held, and advances retirement for the signaled fences. When
// waitAll is unset and more than one fence was passed, there is no way to
// know which subset signaled, so retirement is not advanced.
func (t *Tracker) WaitForFences(waitAll bool, timeout time.Duration, fences []state.Fence) (common.VkResult, error) {
	t.logger.Debug("Tracker::WaitForFences")

	t.lock.Lock()
	skip := false
	for _, fence := range fences {
		if t.state.VerifyFenceStatus(fence, "WaitForFences") {
			skip = true
		}
	}
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}

	res, err := t.driver.WaitForFences(waitAll, timeout, fences)

	if res == core1_0.VKSuccess && (waitAll || len(fences) == 1) {
		t.lock.Lock()
		for _, fence := range fences {
			t.state.UpdateFenceTracking(fence)
		}
		t.lock.Unlock()
	}
	return res, err
}

// QueueWaitIdle forwards first, then marks everything submitted to the
// queue as retired.
func (t *Tracker) QueueWaitIdle(queue state.Queue) (common.VkResult, error) {
	t.logger.Debug("Tracker::QueueWaitIdle")

	res, err := t.driver.QueueWaitIdle(queue)
	if res == core1_0.VKSuccess {
		t.lock.Lock()
		t.state.RetireQueue(queue)
		t.lock.Unlock()
	}
	return res, err
}

// DeviceWaitIdle forwards first, then retires every queue on the device.
func (t *Tracker) DeviceWaitIdle() (common.VkResult, error) {
	t.logger.Debug("Tracker::DeviceWaitIdle")

	res, err := t.driver.DeviceWaitIdle()
	if res == core1_0.VKSuccess {
		t.lock.Lock()
		t.state.RetireDevice()
		t.lock.Unlock()
	}
	return res, err
}
