package memtrack

import (
	"time"
	"unsafe"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// SubmitInfo is one batch of a queue submission.
type SubmitInfo struct {
	CommandBuffers   []state.CommandBuffer
	WaitSemaphores   []state.Semaphore
	SignalSemaphores []state.Semaphore
}

// SparseMemoryBind binds one memory range into a sparse resource. A null
// memory handle unbinds the range.
type SparseMemoryBind struct {
	ResourceOffset int
	Size           int
	Memory         state.DeviceMemory
	MemoryOffset   int
}

type SparseBufferMemoryBindInfo struct {
	Buffer state.Buffer
	Binds  []SparseMemoryBind
}

type SparseImageOpaqueMemoryBindInfo struct {
	Image state.Image
	Binds []SparseMemoryBind
}

type SparseImageMemoryBindInfo struct {
	Image state.Image
	Binds []SparseMemoryBind
}

// BindSparseInfo is one batch of a sparse-binding submission.
type BindSparseInfo struct {
	BufferBinds      []SparseBufferMemoryBindInfo
	ImageOpaqueBinds []SparseImageOpaqueMemoryBindInfo
	ImageBinds       []SparseImageMemoryBindInfo
}

// CommandBufferAllocateInfo describes a command-buffer allocation request.
type CommandBufferAllocateInfo struct {
	Level              core1_0.CommandBufferLevel
	CommandBufferCount int
}

// DeviceDriver is the device dispatch table the tracker forwards to once
// validation has run. Every method mirrors the underlying API call the
// tracker intercepts; handles are the opaque identifiers the driver issued.
type DeviceDriver interface {
	AllocateMemory(allocInfo core1_0.MemoryAllocateInfo, callbacks *driver.AllocationCallbacks) (state.DeviceMemory, common.VkResult, error)
	FreeMemory(mem state.DeviceMemory, callbacks *driver.AllocationCallbacks)
	MapMemory(mem state.DeviceMemory, offset, size int, flags core1_0.MemoryMapFlags) (unsafe.Pointer, common.VkResult, error)
	UnmapMemory(mem state.DeviceMemory)

	CreateBuffer(createInfo core1_0.BufferCreateInfo, callbacks *driver.AllocationCallbacks) (state.Buffer, common.VkResult, error)
	DestroyBuffer(buffer state.Buffer, callbacks *driver.AllocationCallbacks)
	CreateImage(createInfo core1_0.ImageCreateInfo, callbacks *driver.AllocationCallbacks) (state.Image, common.VkResult, error)
	DestroyImage(image state.Image, callbacks *driver.AllocationCallbacks)
	CreateBufferView(buffer state.Buffer, callbacks *driver.AllocationCallbacks) (state.BufferView, common.VkResult, error)
	CreateImageView(image state.Image, callbacks *driver.AllocationCallbacks) (state.ImageView, common.VkResult, error)
	BindBufferMemory(buffer state.Buffer, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error)
	BindImageMemory(image state.Image, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error)

	GetDeviceQueue(queueFamilyIndex, queueIndex int) state.Queue
	QueueSubmit(queue state.Queue, submits []SubmitInfo, fence state.Fence) (common.VkResult, error)
	QueueBindSparse(queue state.Queue, bindInfos []BindSparseInfo, fence state.Fence) (common.VkResult, error)
	QueueWaitIdle(queue state.Queue) (common.VkResult, error)
	DeviceWaitIdle() (common.VkResult, error)

	CreateFence(createInfo core1_0.FenceCreateInfo, callbacks *driver.AllocationCallbacks) (state.Fence, common.VkResult, error)
	DestroyFence(fence state.Fence, callbacks *driver.AllocationCallbacks)
	ResetFences(fences []state.Fence) (common.VkResult, error)
	GetFenceStatus(fence state.Fence) (common.VkResult, error)
	WaitForFences(waitAll bool, timeout time.Duration, fences []state.Fence) (common.VkResult, error)

	CreateSemaphore(callbacks *driver.AllocationCallbacks) (state.Semaphore, common.VkResult, error)
	DestroySemaphore(semaphore state.Semaphore, callbacks *driver.AllocationCallbacks)

	AllocateCommandBuffers(allocInfo CommandBufferAllocateInfo) ([]state.CommandBuffer, common.VkResult, error)
	FreeCommandBuffers(commandBuffers []state.CommandBuffer)
	BeginCommandBuffer(cb state.CommandBuffer, beginInfo core1_0.CommandBufferBeginInfo) (common.VkResult, error)
	EndCommandBuffer(cb state.CommandBuffer) (common.VkResult, error)
	ResetCommandBuffer(cb state.CommandBuffer, flags core1_0.CommandBufferResetFlags) (common.VkResult, error)

	CmdSetViewport(cb state.CommandBuffer, viewports []core1_0.Viewport)
	CmdSetScissor(cb state.CommandBuffer, scissors []core1_0.Rect2D)
	CmdSetLineWidth(cb state.CommandBuffer, lineWidth float32)
	CmdSetDepthBias(cb state.CommandBuffer, constantFactor, clamp, slopeFactor float32)
	CmdSetBlendConstants(cb state.CommandBuffer, blendConstants [4]float32)
	CmdSetDepthBounds(cb state.CommandBuffer, minBounds, maxBounds float32)
	CmdSetStencilCompareMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, compareMask uint32)
	CmdSetStencilWriteMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, writeMask uint32)
	CmdSetStencilReference(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, reference uint32)

	CmdCopyBuffer(cb state.CommandBuffer, src, dst state.Buffer, regions []core1_0.BufferCopy)
	CmdCopyImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageCopy)
	CmdBlitImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageBlit, filter core1_0.Filter)
	CmdCopyBufferToImage(cb state.CommandBuffer, src state.Buffer, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.BufferImageCopy)
	CmdCopyImageToBuffer(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Buffer, regions []core1_0.BufferImageCopy)
	CmdUpdateBuffer(cb state.CommandBuffer, dst state.Buffer, offset int, data []byte)
	CmdFillBuffer(cb state.CommandBuffer, dst state.Buffer, offset, size int, data uint32)
	CmdClearColorImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, color core1_0.ClearColorValue, ranges []core1_0.ImageSubresourceRange)
	CmdClearDepthStencilImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, depthStencil core1_0.ClearValueDepthStencil, ranges []core1_0.ImageSubresourceRange)
	CmdResolveImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageResolve)
	CmdDrawIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int)
	CmdDrawIndexedIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int)
	CmdDispatchIndirect(cb state.CommandBuffer, buffer state.Buffer, offset int)
	CmdCopyQueryPoolResults(cb state.CommandBuffer, queryPool state.QueryPool, firstQuery, queryCount int, dst state.Buffer, offset, stride int, flags core1_0.QueryResultFlags)

	CreateSwapchain(createInfo state.SwapchainCreateInfo, callbacks *driver.AllocationCallbacks) (state.Swapchain, common.VkResult, error)
	DestroySwapchain(swapchain state.Swapchain, callbacks *driver.AllocationCallbacks)
	GetSwapchainImages(swapchain state.Swapchain) ([]state.Image, common.VkResult, error)
	AcquireNextImage(swapchain state.Swapchain, timeout time.Duration, semaphore state.Semaphore) (int, common.VkResult, error)

	DestroyDevice(callbacks *driver.AllocationCallbacks)
}
