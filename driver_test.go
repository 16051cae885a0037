package memtrack

import (
	"time"
	"unsafe"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/state"
)

// fakeDriver is the stand-in dispatch table for tracker tests. It hands out
// sequential handles, records the name of every forwarded call, and lets
// tests choose fence-status results.
type fakeDriver struct {
	calls      []string
	nextHandle uint64

	fenceStatus     map[state.Fence]common.VkResult
	swapchainImages []state.Image
	mapped          []byte
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		fenceStatus: map[state.Fence]common.VkResult{},
		mapped:      make([]byte, 4096),
	}
}

func (d *fakeDriver) forwarded(name string) {
	d.calls = append(d.calls, name)
}

func (d *fakeDriver) forwardCount(name string) int {
	count := 0
	for _, call := range d.calls {
		if call == name {
			count++
		}
	}
	return count
}

func (d *fakeDriver) handle() uint64 {
	d.nextHandle++
	return d.nextHandle
}

func (d *fakeDriver) AllocateMemory(allocInfo core1_0.MemoryAllocateInfo, callbacks *driver.AllocationCallbacks) (state.DeviceMemory, common.VkResult, error) {
	d.forwarded("AllocateMemory")
	return state.DeviceMemory(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) FreeMemory(mem state.DeviceMemory, callbacks *driver.AllocationCallbacks) {
	d.forwarded("FreeMemory")
}

func (d *fakeDriver) MapMemory(mem state.DeviceMemory, offset, size int, flags core1_0.MemoryMapFlags) (unsafe.Pointer, common.VkResult, error) {
	d.forwarded("MapMemory")
	return unsafe.Pointer(&d.mapped[0]), core1_0.VKSuccess, nil
}

func (d *fakeDriver) UnmapMemory(mem state.DeviceMemory) {
	d.forwarded("UnmapMemory")
}

func (d *fakeDriver) CreateBuffer(createInfo core1_0.BufferCreateInfo, callbacks *driver.AllocationCallbacks) (state.Buffer, common.VkResult, error) {
	d.forwarded("CreateBuffer")
	return state.Buffer(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroyBuffer(buffer state.Buffer, callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroyBuffer")
}

func (d *fakeDriver) CreateImage(createInfo core1_0.ImageCreateInfo, callbacks *driver.AllocationCallbacks) (state.Image, common.VkResult, error) {
	d.forwarded("CreateImage")
	return state.Image(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroyImage(image state.Image, callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroyImage")
}

func (d *fakeDriver) CreateBufferView(buffer state.Buffer, callbacks *driver.AllocationCallbacks) (state.BufferView, common.VkResult, error) {
	d.forwarded("CreateBufferView")
	return state.BufferView(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) CreateImageView(image state.Image, callbacks *driver.AllocationCallbacks) (state.ImageView, common.VkResult, error) {
	d.forwarded("CreateImageView")
	return state.ImageView(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) BindBufferMemory(buffer state.Buffer, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error) {
	d.forwarded("BindBufferMemory")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) BindImageMemory(image state.Image, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error) {
	d.forwarded("BindImageMemory")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) GetDeviceQueue(queueFamilyIndex, queueIndex int) state.Queue {
	d.forwarded("GetDeviceQueue")
	return state.Queue(d.handle())
}

func (d *fakeDriver) QueueSubmit(queue state.Queue, submits []SubmitInfo, fence state.Fence) (common.VkResult, error) {
	d.forwarded("QueueSubmit")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) QueueBindSparse(queue state.Queue, bindInfos []BindSparseInfo, fence state.Fence) (common.VkResult, error) {
	d.forwarded("QueueBindSparse")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) QueueWaitIdle(queue state.Queue) (common.VkResult, error) {
	d.forwarded("QueueWaitIdle")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) DeviceWaitIdle() (common.VkResult, error) {
	d.forwarded("DeviceWaitIdle")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) CreateFence(createInfo core1_0.FenceCreateInfo, callbacks *driver.AllocationCallbacks) (state.Fence, common.VkResult, error) {
	d.forwarded("CreateFence")
	return state.Fence(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroyFence(fence state.Fence, callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroyFence")
}

func (d *fakeDriver) ResetFences(fences []state.Fence) (common.VkResult, error) {
	d.forwarded("ResetFences")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) GetFenceStatus(fence state.Fence) (common.VkResult, error) {
	d.forwarded("GetFenceStatus")
	res, ok := d.fenceStatus[fence]
	if !ok {
		res = core1_0.VKSuccess
	}
	return res, nil
}

func (d *fakeDriver) WaitForFences(waitAll bool, timeout time.Duration, fences []state.Fence) (common.VkResult, error) {
	d.forwarded("WaitForFences")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) CreateSemaphore(callbacks *driver.AllocationCallbacks) (state.Semaphore, common.VkResult, error) {
	d.forwarded("CreateSemaphore")
	return state.Semaphore(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroySemaphore(semaphore state.Semaphore, callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroySemaphore")
}

func (d *fakeDriver) AllocateCommandBuffers(allocInfo CommandBufferAllocateInfo) ([]state.CommandBuffer, common.VkResult, error) {
	d.forwarded("AllocateCommandBuffers")
	commandBuffers := make([]state.CommandBuffer, allocInfo.CommandBufferCount)
	for i := range commandBuffers {
		commandBuffers[i] = state.CommandBuffer(d.handle())
	}
	return commandBuffers, core1_0.VKSuccess, nil
}

func (d *fakeDriver) FreeCommandBuffers(commandBuffers []state.CommandBuffer) {
	d.forwarded("FreeCommandBuffers")
}

func (d *fakeDriver) BeginCommandBuffer(cb state.CommandBuffer, beginInfo core1_0.CommandBufferBeginInfo) (common.VkResult, error) {
	d.forwarded("BeginCommandBuffer")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) EndCommandBuffer(cb state.CommandBuffer) (common.VkResult, error) {
	d.forwarded("EndCommandBuffer")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) ResetCommandBuffer(cb state.CommandBuffer, flags core1_0.CommandBufferResetFlags) (common.VkResult, error) {
	d.forwarded("ResetCommandBuffer")
	return core1_0.VKSuccess, nil
}

func (d *fakeDriver) CmdSetViewport(cb state.CommandBuffer, viewports []core1_0.Viewport) {
	d.forwarded("CmdSetViewport")
}

func (d *fakeDriver) CmdSetScissor(cb state.CommandBuffer, scissors []core1_0.Rect2D) {
	d.forwarded("CmdSetScissor")
}

func (d *fakeDriver) CmdSetLineWidth(cb state.CommandBuffer, lineWidth float32) {
	d.forwarded("CmdSetLineWidth")
}

func (d *fakeDriver) CmdSetDepthBias(cb state.CommandBuffer, constantFactor, clamp, slopeFactor float32) {
	d.forwarded("CmdSetDepthBias")
}

func (d *fakeDriver) CmdSetBlendConstants(cb state.CommandBuffer, blendConstants [4]float32) {
	d.forwarded("CmdSetBlendConstants")
}

func (d *fakeDriver) CmdSetDepthBounds(cb state.CommandBuffer, minBounds, maxBounds float32) {
	d.forwarded("CmdSetDepthBounds")
}

func (d *fakeDriver) CmdSetStencilCompareMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, compareMask uint32) {
	d.forwarded("CmdSetStencilCompareMask")
}

func (d *fakeDriver) CmdSetStencilWriteMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, writeMask uint32) {
	d.forwarded("CmdSetStencilWriteMask")
}

func (d *fakeDriver) CmdSetStencilReference(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, reference uint32) {
	d.forwarded("CmdSetStencilReference")
}

func (d *fakeDriver) CmdCopyBuffer(cb state.CommandBuffer, src, dst state.Buffer, regions []core1_0.BufferCopy) {
	d.forwarded("CmdCopyBuffer")
}

func (d *fakeDriver) CmdCopyImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageCopy) {
	d.forwarded("CmdCopyImage")
}

func (d *fakeDriver) CmdBlitImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageBlit, filter core1_0.Filter) {
	d.forwarded("CmdBlitImage")
}

func (d *fakeDriver) CmdCopyBufferToImage(cb state.CommandBuffer, src state.Buffer, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) {
	d.forwarded("CmdCopyBufferToImage")
}

func (d *fakeDriver) CmdCopyImageToBuffer(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Buffer, regions []core1_0.BufferImageCopy) {
	d.forwarded("CmdCopyImageToBuffer")
}

func (d *fakeDriver) CmdUpdateBuffer(cb state.CommandBuffer, dst state.Buffer, offset int, data []byte) {
	d.forwarded("CmdUpdateBuffer")
}

func (d *fakeDriver) CmdFillBuffer(cb state.CommandBuffer, dst state.Buffer, offset, size int, data uint32) {
	d.forwarded("CmdFillBuffer")
}

func (d *fakeDriver) CmdClearColorImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, color core1_0.ClearColorValue, ranges []core1_0.ImageSubresourceRange) {
	d.forwarded("CmdClearColorImage")
}

func (d *fakeDriver) CmdClearDepthStencilImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, depthStencil core1_0.ClearValueDepthStencil, ranges []core1_0.ImageSubresourceRange) {
	d.forwarded("CmdClearDepthStencilImage")
}

func (d *fakeDriver) CmdResolveImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageResolve) {
	d.forwarded("CmdResolveImage")
}

func (d *fakeDriver) CmdDrawIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int) {
	d.forwarded("CmdDrawIndirect")
}

func (d *fakeDriver) CmdDrawIndexedIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int) {
	d.forwarded("CmdDrawIndexedIndirect")
}

func (d *fakeDriver) CmdDispatchIndirect(cb state.CommandBuffer, buffer state.Buffer, offset int) {
	d.forwarded("CmdDispatchIndirect")
}

func (d *fakeDriver) CmdCopyQueryPoolResults(cb state.CommandBuffer, queryPool state.QueryPool, firstQuery, queryCount int, dst state.Buffer, offset, stride int, flags core1_0.QueryResultFlags) {
	d.forwarded("CmdCopyQueryPoolResults")
}

func (d *fakeDriver) CreateSwapchain(createInfo state.SwapchainCreateInfo, callbacks *driver.AllocationCallbacks) (state.Swapchain, common.VkResult, error) {
	d.forwarded("CreateSwapchain")
	return state.Swapchain(d.handle()), core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroySwapchain(swapchain state.Swapchain, callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroySwapchain")
}

func (d *fakeDriver) GetSwapchainImages(swapchain state.Swapchain) ([]state.Image, common.VkResult, error) {
	d.forwarded("GetSwapchainImages")
	if d.swapchainImages == nil {
		d.swapchainImages = []state.Image{
			state.Image(d.handle()),
			state.Image(d.handle()),
			state.Image(d.handle()),
		}
	}
	return d.swapchainImages, core1_0.VKSuccess, nil
}

func (d *fakeDriver) AcquireNextImage(swapchain state.Swapchain, timeout time.Duration, semaphore state.Semaphore) (int, common.VkResult, error) {
	d.forwarded("AcquireNextImage")
	return 0, core1_0.VKSuccess, nil
}

func (d *fakeDriver) DestroyDevice(callbacks *driver.AllocationCallbacks) {
	d.forwarded("DestroyDevice")
}
