package state

// Handle types are the opaque identifiers the driver hands out, unique
// within their kind for the lifetime of the owning device. The tracker
// stores only handles in cross-references, never record addresses.
type (
	Device        uint64
	DeviceMemory  uint64
	Buffer        uint64
	Image         uint64
	BufferView    uint64
	ImageView     uint64
	CommandBuffer uint64
	Queue         uint64
	Fence         uint64
	Semaphore     uint64
	Swapchain     uint64
	QueryPool     uint64
)

const (
	// NullMemory is the null device-memory handle
	NullMemory DeviceMemory = 0
	// NullFence marks a submission made without a fence
	NullFence Fence = 0
	// NullQueue marks a command buffer that has never been submitted
	NullQueue Queue = 0

	// SwapchainSentinel is bound to WSI images, whose backing store belongs
	// to the presentation engine and must never be tracked as an allocation.
	// It is distinct from every real memory handle and from NullMemory.
	SwapchainSentinel DeviceMemory = ^DeviceMemory(0)
)
