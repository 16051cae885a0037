package memtrack

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/memtrack/internal/debug"
	"github.com/vkngwrapper/memtrack/internal/state"
	"github.com/vkngwrapper/memtrack/report"
)

// AllocateCommandBuffers forwards the allocation and registers a tracking
// record for each returned command buffer.
func (t *Tracker) AllocateCommandBuffers(allocInfo CommandBufferAllocateInfo) ([]state.CommandBuffer, common.VkResult, error) {
	t.logger.Debug("Tracker::AllocateCommandBuffers")

	commandBuffers, res, err := t.driver.AllocateCommandBuffers(allocInfo)
	if err != nil {
		return commandBuffers, res, err
	}

	t.lock.Lock()
	for _, cb := range commandBuffers {
		t.state.AddCommandBuffer(cb)
	}
	t.lock.Unlock()
	return commandBuffers, res, nil
}

// FreeCommandBuffers unwires each command buffer's memory references and
// drops its record before forwarding.
func (t *Tracker) FreeCommandBuffers(commandBuffers []state.CommandBuffer) {
	t.logger.Debug("Tracker::FreeCommandBuffers")

	t.lock.Lock()
	for _, cb := range commandBuffers {
		t.state.RemoveCommandBuffer(cb)
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	t.driver.FreeCommandBuffers(commandBuffers)
}

// BeginCommandBuffer implicitly resets the command buffer, so its previous
// submission must have retired. The memory references from the previous
// recording are cleared after the driver call.
func (t *Tracker) BeginCommandBuffer(cb state.CommandBuffer, beginInfo core1_0.CommandBufferBeginInfo) (common.VkResult, error) {
	t.logger.Debug("Tracker::BeginCommandBuffer")

	t.lock.Lock()
	complete, skip := t.state.CheckCBComplete(cb)
	if !complete {
		if t.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeResetCBWhileInFlight, state.PrefixMem,
			"Calling BeginCommandBuffer() on active command buffer %#x before it has completed. "+
				"You must check command buffer fence before this call", uint64(cb)) {
			skip = true
		}
	}
	t.lock.Unlock()

	var res common.VkResult
	var err error
	if skip {
		res, err = validationFailed()
	} else {
		res, err = t.driver.BeginCommandBuffer(cb, beginInfo)
	}

	t.lock.Lock()
	t.state.ClearCBRefs(cb)
	debug.DebugValidate(t.state)
	t.lock.Unlock()
	return res, err
}

// EndCommandBuffer is forwarded untouched; recording state is not tracked.
func (t *Tracker) EndCommandBuffer(cb state.CommandBuffer) (common.VkResult, error) {
	return t.driver.EndCommandBuffer(cb)
}

// ResetCommandBuffer requires the command buffer's previous submission to
// have retired, then clears its memory references.
func (t *Tracker) ResetCommandBuffer(cb state.CommandBuffer, flags core1_0.CommandBufferResetFlags) (common.VkResult, error) {
	t.logger.Debug("Tracker::ResetCommandBuffer")

	t.lock.Lock()
	complete, skip := t.state.CheckCBComplete(cb)
	if !complete {
		if t.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeResetCBWhileInFlight, state.PrefixMem,
			"Resetting command buffer %#x before it has completed. You must check command buffer fence "+
				"before calling ResetCommandBuffer()", uint64(cb)) {
			skip = true
		}
	}
	if t.state.ClearCBRefs(cb) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	return t.driver.ResetCommandBuffer(cb, flags)
}

// requireCommandBuffer backs the dynamic-state commands, which touch no
// memory state but must still reject recording into an unknown command
// buffer.
func (t *Tracker) requireCommandBuffer(cb state.CommandBuffer) bool {
	t.lock.Lock()
	skip := t.state.RequireCommandBuffer(cb)
	t.lock.Unlock()
	return skip
}

func (t *Tracker) CmdSetViewport(cb state.CommandBuffer, viewports []core1_0.Viewport) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetViewport(cb, viewports)
}

func (t *Tracker) CmdSetScissor(cb state.CommandBuffer, scissors []core1_0.Rect2D) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetScissor(cb, scissors)
}

func (t *Tracker) CmdSetLineWidth(cb state.CommandBuffer, lineWidth float32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetLineWidth(cb, lineWidth)
}

func (t *Tracker) CmdSetDepthBias(cb state.CommandBuffer, constantFactor, clamp, slopeFactor float32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetDepthBias(cb, constantFactor, clamp, slopeFactor)
}

func (t *Tracker) CmdSetBlendConstants(cb state.CommandBuffer, blendConstants [4]float32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetBlendConstants(cb, blendConstants)
}

func (t *Tracker) CmdSetDepthBounds(cb state.CommandBuffer, minBounds, maxBounds float32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetDepthBounds(cb, minBounds, maxBounds)
}

func (t *Tracker) CmdSetStencilCompareMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, compareMask uint32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetStencilCompareMask(cb, faceMask, compareMask)
}

func (t *Tracker) CmdSetStencilWriteMask(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, writeMask uint32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetStencilWriteMask(cb, faceMask, writeMask)
}

func (t *Tracker) CmdSetStencilReference(cb state.CommandBuffer, faceMask core1_0.StencilFaceFlags, reference uint32) {
	if t.requireCommandBuffer(cb) {
		return
	}
	t.driver.CmdSetStencilReference(cb, faceMask, reference)
}

// referenceResource looks up a resource's memory binding and wires the
// command-buffer reference to it. It is the shared preamble of every
// recorded command that reads or writes a bound resource.
func (t *Tracker) referenceResource(cb state.CommandBuffer, kind report.ObjectKind, handle uint64, apiName string) bool {
	mem, skip := t.state.Binding(kind, handle)
	if t.state.UpdateCBMemRef(cb, mem, apiName) {
		skip = true
	}
	return skip
}

func (t *Tracker) CmdCopyBuffer(cb state.CommandBuffer, src, dst state.Buffer, regions []core1_0.BufferCopy) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(src), "CmdCopyBuffer")
	if t.referenceResource(cb, report.ObjectBuffer, uint64(dst), "CmdCopyBuffer") {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(src), uint32(core1_0.BufferUsageTransferSrc), true,
		"CmdCopyBuffer()", core1_0.BufferUsageTransferSrc.String()) {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(dst), uint32(core1_0.BufferUsageTransferDst), true,
		"CmdCopyBuffer()", core1_0.BufferUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdCopyBuffer(cb, src, dst, regions)
}

func (t *Tracker) CmdCopyImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageCopy) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(src), "CmdCopyImage")
	if t.referenceResource(cb, report.ObjectImage, uint64(dst), "CmdCopyImage") {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(src), uint32(core1_0.ImageUsageTransferSrc), true,
		"CmdCopyImage()", core1_0.ImageUsageTransferSrc.String()) {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(dst), uint32(core1_0.ImageUsageTransferDst), true,
		"CmdCopyImage()", core1_0.ImageUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdCopyImage(cb, src, srcLayout, dst, dstLayout, regions)
}

func (t *Tracker) CmdBlitImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageBlit, filter core1_0.Filter) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(src), "CmdBlitImage")
	if t.referenceResource(cb, report.ObjectImage, uint64(dst), "CmdBlitImage") {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(src), uint32(core1_0.ImageUsageTransferSrc), true,
		"CmdBlitImage()", core1_0.ImageUsageTransferSrc.String()) {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(dst), uint32(core1_0.ImageUsageTransferDst), true,
		"CmdBlitImage()", core1_0.ImageUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdBlitImage(cb, src, srcLayout, dst, dstLayout, regions, filter)
}

func (t *Tracker) CmdCopyBufferToImage(cb state.CommandBuffer, src state.Buffer, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(src), "CmdCopyBufferToImage")
	if t.referenceResource(cb, report.ObjectImage, uint64(dst), "CmdCopyBufferToImage") {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(src), uint32(core1_0.BufferUsageTransferSrc), true,
		"CmdCopyBufferToImage()", core1_0.BufferUsageTransferSrc.String()) {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(dst), uint32(core1_0.ImageUsageTransferDst), true,
		"CmdCopyBufferToImage()", core1_0.ImageUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdCopyBufferToImage(cb, src, dst, dstLayout, regions)
}

func (t *Tracker) CmdCopyImageToBuffer(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Buffer, regions []core1_0.BufferImageCopy) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(src), "CmdCopyImageToBuffer")
	if t.referenceResource(cb, report.ObjectBuffer, uint64(dst), "CmdCopyImageToBuffer") {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectImage, uint64(src), uint32(core1_0.ImageUsageTransferSrc), true,
		"CmdCopyImageToBuffer()", core1_0.ImageUsageTransferSrc.String()) {
		skip = true
	}
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(dst), uint32(core1_0.BufferUsageTransferDst), true,
		"CmdCopyImageToBuffer()", core1_0.BufferUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdCopyImageToBuffer(cb, src, srcLayout, dst, regions)
}

func (t *Tracker) CmdUpdateBuffer(cb state.CommandBuffer, dst state.Buffer, offset int, data []byte) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(dst), "CmdUpdateBuffer")
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(dst), uint32(core1_0.BufferUsageTransferDst), true,
		"CmdUpdateBuffer()", core1_0.BufferUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdUpdateBuffer(cb, dst, offset, data)
}

func (t *Tracker) CmdFillBuffer(cb state.CommandBuffer, dst state.Buffer, offset, size int, data uint32) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(dst), "CmdFillBuffer")
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(dst), uint32(core1_0.BufferUsageTransferDst), true,
		"CmdFillBuffer()", core1_0.BufferUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdFillBuffer(cb, dst, offset, size, data)
}

func (t *Tracker) CmdClearColorImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, color core1_0.ClearColorValue, ranges []core1_0.ImageSubresourceRange) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(image), "CmdClearColorImage")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdClearColorImage(cb, image, layout, color, ranges)
}

func (t *Tracker) CmdClearDepthStencilImage(cb state.CommandBuffer, image state.Image, layout core1_0.ImageLayout, depthStencil core1_0.ClearValueDepthStencil, ranges []core1_0.ImageSubresourceRange) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(image), "CmdClearDepthStencilImage")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdClearDepthStencilImage(cb, image, layout, depthStencil, ranges)
}

func (t *Tracker) CmdResolveImage(cb state.CommandBuffer, src state.Image, srcLayout core1_0.ImageLayout, dst state.Image, dstLayout core1_0.ImageLayout, regions []core1_0.ImageResolve) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectImage, uint64(src), "CmdResolveImage")
	if t.referenceResource(cb, report.ObjectImage, uint64(dst), "CmdResolveImage") {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdResolveImage(cb, src, srcLayout, dst, dstLayout, regions)
}

func (t *Tracker) CmdDrawIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(buffer), "CmdDrawIndirect")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdDrawIndirect(cb, buffer, offset, drawCount, stride)
}

func (t *Tracker) CmdDrawIndexedIndirect(cb state.CommandBuffer, buffer state.Buffer, offset, drawCount, stride int) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(buffer), "CmdDrawIndexedIndirect")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdDrawIndexedIndirect(cb, buffer, offset, drawCount, stride)
}

func (t *Tracker) CmdDispatchIndirect(cb state.CommandBuffer, buffer state.Buffer, offset int) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(buffer), "CmdDispatchIndirect")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdDispatchIndirect(cb, buffer, offset)
}

func (t *Tracker) CmdCopyQueryPoolResults(cb state.CommandBuffer, queryPool state.QueryPool, firstQuery, queryCount int, dst state.Buffer, offset, stride int, flags core1_0.QueryResultFlags) {
	t.lock.Lock()
	skip := t.referenceResource(cb, report.ObjectBuffer, uint64(dst), "CmdCopyQueryPoolResults")
	if t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(dst), uint32(core1_0.BufferUsageTransferDst), true,
		"CmdCopyQueryPoolResults()", core1_0.BufferUsageTransferDst.String()) {
		skip = true
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return
	}
	t.driver.CmdCopyQueryPoolResults(cb, queryPool, firstQuery, queryCount, dst, offset, stride, flags)
}
