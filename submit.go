package memtrack

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/memtrack/internal/debug"
	"github.com/vkngwrapper/memtrack/internal/state"
	"golang.org/x/exp/slog"
)

// GetDeviceQueue forwards the lookup and registers the queue so later
// submissions have a watermark record to advance.
func (t *Tracker) GetDeviceQueue(queueFamilyIndex, queueIndex int) state.Queue {
	t.logger.Debug("Tracker::GetDeviceQueue")

	queue := t.driver.GetDeviceQueue(queueFamilyIndex, queueIndex)

	t.lock.Lock()
	t.state.AddQueue(queue)
	t.lock.Unlock()
	return queue
}

// QueueSubmit allocates the submission's fence id, stamps every command
// buffer in the batch, and walks the semaphore state machines. Waited-on
// semaphores return to Unset after the driver call, whether or not the
// call was forwarded.
func (t *Tracker) QueueSubmit(queue state.Queue, submits []SubmitInfo, fence state.Fence) (common.VkResult, error) {
	t.logger.Debug("Tracker::QueueSubmit", slog.Int("SubmitCount", len(submits)))

	t.lock.Lock()
	fenceID, skip := t.state.SubmitFence(queue, fence)

	for _, submit := range submits {
		for _, cb := range submit.CommandBuffers {
			if t.state.RecordCBSubmission(cb, fenceID, fence, queue) {
				skip = true
			}
		}
		for _, semaphore := range submit.WaitSemaphores {
			if t.state.WaitSemaphore(semaphore, "QueueSubmit") {
				skip = true
			}
		}
		for _, semaphore := range submit.SignalSemaphores {
			if t.state.SignalSemaphore(semaphore, "QueueSubmit") {
				skip = true
			}
		}
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	res, err := validationFailed()
	if !skip {
		res, err = t.driver.QueueSubmit(queue, submits, fence)
	}

	t.lock.Lock()
	for _, submit := range submits {
		for _, semaphore := range submit.WaitSemaphores {
			t.state.RetireSemaphoreWait(semaphore)
		}
	}
	t.lock.Unlock()

	return res, err
}
