package report

// ObjectKind identifies which handle namespace a diagnostic refers to.
// Buffers, images, and swapchain images live in separate namespaces whose
// raw handle values may collide.
type ObjectKind int32

const (
	ObjectUnknown ObjectKind = iota
	ObjectInstance
	ObjectDevice
	ObjectQueue
	ObjectDeviceMemory
	ObjectBuffer
	ObjectImage
	ObjectSwapchainImage
	ObjectCommandBuffer
	ObjectFence
	ObjectSemaphore
	ObjectSwapchain
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectInstance:
		return "instance"
	case ObjectDevice:
		return "device"
	case ObjectQueue:
		return "queue"
	case ObjectDeviceMemory:
		return "device memory"
	case ObjectBuffer:
		return "buffer"
	case ObjectImage:
		return "image"
	case ObjectSwapchainImage:
		return "swapchain image"
	case ObjectCommandBuffer:
		return "command buffer"
	case ObjectFence:
		return "fence"
	case ObjectSemaphore:
		return "semaphore"
	case ObjectSwapchain:
		return "swapchain"
	}
	return "unknown"
}
