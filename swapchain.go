package memtrack

import (
	"time"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/debug"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// CreateSwapchain forwards the creation and records the create info so WSI
// images can inherit the swapchain's image usage.
func (t *Tracker) CreateSwapchain(createInfo state.SwapchainCreateInfo, callbacks *driver.AllocationCallbacks) (state.Swapchain, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateSwapchain")

	swapchain, res, err := t.driver.CreateSwapchain(createInfo, callbacks)
	if err != nil {
		return swapchain, res, err
	}

	t.lock.Lock()
	t.state.AddSwapchain(swapchain, createInfo)
	t.lock.Unlock()
	return swapchain, res, nil
}

// GetSwapchainImages forwards the query and, on the first call that
// reports images, registers each as a swapchain-image resource bound to
// the sentinel. Later calls warn when the driver's list changed.
func (t *Tracker) GetSwapchainImages(swapchain state.Swapchain) ([]state.Image, common.VkResult, error) {
	t.logger.Debug("Tracker::GetSwapchainImages")

	images, res, err := t.driver.GetSwapchainImages(swapchain)
	if err != nil {
		return images, res, err
	}

	t.lock.Lock()
	t.state.RegisterSwapchainImages(swapchain, images)
	debug.DebugValidate(t.state)
	t.lock.Unlock()
	return images, res, nil
}

// AcquireNextImage signals the provided semaphore, which must be Unset,
// then forwards. The wait itself runs without the core lock held.
func (t *Tracker) AcquireNextImage(swapchain state.Swapchain, timeout time.Duration, semaphore state.Semaphore) (int, common.VkResult, error) {
	t.logger.Debug("Tracker::AcquireNextImage")

	t.lock.Lock()
	skip := t.state.SignalSemaphore(semaphore, "AcquireNextImage")
	t.lock.Unlock()

	if skip {
		res, err := validationFailed()
		return 0, res, err
	}
	return t.driver.AcquireNextImage(swapchain, timeout, semaphore)
}

// DestroySwapchain unregisters every image the swapchain reported and
// deletes the swapchain record before forwarding.
func (t *Tracker) DestroySwapchain(swapchain state.Swapchain, callbacks *driver.AllocationCallbacks) (common.VkResult, error) {
	t.logger.Debug("Tracker::DestroySwapchain")

	t.lock.Lock()
	skip := t.state.DestroySwapchain(swapchain)
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	t.driver.DestroySwapchain(swapchain, callbacks)
	return core1_0.VKSuccess, nil
}
