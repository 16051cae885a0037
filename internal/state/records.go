package state

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/memtrack/report"
)

// BoundObject names one resource entry in a memory object's binding set.
type BoundObject struct {
	Kind   report.ObjectKind
	Handle uint64
}

// MemoryObject is the per-allocation record. RefCount always equals the
// number of resource bindings plus the number of command-buffer bindings.
type MemoryObject struct {
	Handle    DeviceMemory
	AllocInfo core1_0.MemoryAllocateInfo
	RefCount  int

	ObjBindings           []BoundObject
	CommandBufferBindings []CommandBuffer
}

func (m *MemoryObject) hasCommandBuffer(cb CommandBuffer) bool {
	for _, bound := range m.CommandBufferBindings {
		if bound == cb {
			return true
		}
	}
	return false
}

func (m *MemoryObject) removeCommandBuffer(cb CommandBuffer) bool {
	for i, bound := range m.CommandBufferBindings {
		if bound == cb {
			m.CommandBufferBindings = append(m.CommandBufferBindings[:i], m.CommandBufferBindings[i+1:]...)
			return true
		}
	}
	return false
}

func (m *MemoryObject) hasBinding(kind report.ObjectKind, handle uint64) bool {
	for _, bound := range m.ObjBindings {
		if bound.Kind == kind && bound.Handle == handle {
			return true
		}
	}
	return false
}

func (m *MemoryObject) removeBinding(kind report.ObjectKind, handle uint64) bool {
	for i, bound := range m.ObjBindings {
		if bound.Kind == kind && bound.Handle == handle {
			m.ObjBindings = append(m.ObjBindings[:i], m.ObjBindings[i+1:]...)
			return true
		}
	}
	return false
}

// ResourceKey addresses the shared resource table. Buffers, images, and
// swapchain images are distinct namespaces whose raw handles may collide.
type ResourceKey struct {
	Kind   report.ObjectKind
	Handle uint64
}

// Resource is the binding record for a buffer, image, or swapchain image.
type Resource struct {
	Key        ResourceKey
	BufferInfo core1_0.BufferCreateInfo
	ImageInfo  core1_0.ImageCreateInfo

	// Memory is NullMemory while unbound and SwapchainSentinel for WSI
	// images
	Memory DeviceMemory
}

// UsageFlags returns the creation-time usage bits for whichever kind this
// resource is.
func (r *Resource) UsageFlags() uint32 {
	if r.Key.Kind == report.ObjectBuffer {
		return uint32(r.BufferInfo.Usage)
	}
	return uint32(r.ImageInfo.Usage)
}

// CommandBufferState tracks recording references and the most recent
// submission for one command buffer.
type CommandBufferState struct {
	Handle             CommandBuffer
	FenceID            uint64
	LastSubmittedFence Fence
	LastSubmittedQueue Queue

	MemoryRefs []DeviceMemory
}

func (c *CommandBufferState) hasMemoryRef(mem DeviceMemory) bool {
	for _, ref := range c.MemoryRefs {
		if ref == mem {
			return true
		}
	}
	return false
}

// QueueState carries the per-queue submission watermarks. LastRetiredID
// never exceeds LastSubmittedID.
type QueueState struct {
	Handle          Queue
	LastSubmittedID uint64
	LastRetiredID   uint64
}

// FenceState records a fence's creation flags and its most recent
// submission. The fence is signaled iff the signaled creation flag is
// currently set. Reset clears the flag but deliberately keeps the submitter:
// a reset fence retains the identity of its last queue.
type FenceState struct {
	Handle           Fence
	CreateInfo       core1_0.FenceCreateInfo
	SubmittedFenceID uint64
	SubmittedQueue   Queue
}

func (f *FenceState) Signaled() bool {
	return f.CreateInfo.Flags&core1_0.FenceCreateSignaled != 0
}

func (f *FenceState) setSignaled(signaled bool) {
	if signaled {
		f.CreateInfo.Flags |= core1_0.FenceCreateSignaled
	} else {
		f.CreateInfo.Flags &^= core1_0.FenceCreateSignaled
	}
}

// SemaphoreState is the three-state FSM each semaphore moves through.
type SemaphoreState int32

const (
	SemaphoreUnset SemaphoreState = iota
	SemaphoreSignaled
	SemaphoreWait
)

func (s SemaphoreState) String() string {
	switch s {
	case SemaphoreUnset:
		return "unset"
	case SemaphoreSignaled:
		return "signaled"
	case SemaphoreWait:
		return "wait"
	}
	return "unknown"
}

// SwapchainCreateInfo is the subset of swapchain creation parameters the
// tracker retains, primarily so WSI images inherit the image usage bits.
type SwapchainCreateInfo struct {
	MinImageCount    int
	ImageFormat      core1_0.Format
	ImageExtent      core1_0.Extent2D
	ImageArrayLayers int
	ImageUsage       core1_0.ImageUsageFlags
}

// SwapchainState records a swapchain and the image handles the driver
// reported for it.
type SwapchainState struct {
	Handle     Swapchain
	CreateInfo SwapchainCreateInfo
	Images     []Image
}
