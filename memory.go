package memtrack

import (
	"unsafe"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/debug"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// AllocateMemory forwards the allocation and records the returned memory
// object.
func (t *Tracker) AllocateMemory(allocInfo core1_0.MemoryAllocateInfo, callbacks *driver.AllocationCallbacks) (state.DeviceMemory, common.VkResult, error) {
	t.logger.Debug("Tracker::AllocateMemory")

	mem, res, err := t.driver.AllocateMemory(allocInfo, callbacks)
	if err != nil {
		return mem, res, err
	}

	t.lock.Lock()
	t.state.AddMemoryObject(mem, allocInfo)
	debug.DebugValidate(t.state)
	t.lock.Unlock()
	return mem, res, nil
}

// FreeMemory validates and unwires the memory object before forwarding. The
// free is forwarded regardless of validation findings: the application is
// releasing the memory either way.
func (t *Tracker) FreeMemory(mem state.DeviceMemory, callbacks *driver.AllocationCallbacks) {
	t.logger.Debug("Tracker::FreeMemory")

	t.lock.Lock()
	t.state.FreeMemoryObject(mem, false)
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	t.driver.FreeMemory(mem, callbacks)
}

// MapMemory checks host visibility and the requested range against the
// allocation size, then forwards. The driver call runs without the core
// lock held.
func (t *Tracker) MapMemory(mem state.DeviceMemory, offset, size int, flags core1_0.MemoryMapFlags) (unsafe.Pointer, common.VkResult, error) {
	t.logger.Debug("Tracker::MapMemory")

	t.lock.Lock()
	skip := t.state.ValidateMap(mem, offset, size)
	t.lock.Unlock()

	if skip {
		res, err := validationFailed()
		return nil, res, err
	}
	return t.driver.MapMemory(mem, offset, size, flags)
}

// UnmapMemory is forwarded without validation; map-state tracking is
// future work.
func (t *Tracker) UnmapMemory(mem state.DeviceMemory) {
	t.driver.UnmapMemory(mem)
}
