package state

import (
	"github.com/vkngwrapper/memtrack/report"
)

// UpdateCBMemRef wires one command-buffer/memory reference in both
// directions. References to the swapchain sentinel are ignored, because WSI
// image backing store is not a tracked allocation. The reference count only
// moves on the first insertion; repeated references are idempotent.
func (s *DeviceState) UpdateCBMemRef(cb CommandBuffer, mem DeviceMemory, apiName string) bool {
	if mem == SwapchainSentinel {
		return false
	}

	memInfo, found := s.mem.Get(mem)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidMemObj, PrefixMem,
			"In %s, trying to bind memory object %#x to command buffer %#x but no info for that memory object. "+
				"Was it correctly allocated? Did it already get freed?", apiName, uint64(mem), uint64(cb))
	}

	cbInfo, found := s.commandBuffers.Get(cb)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidMemObj, PrefixMem,
			"Trying to bind memory object %#x to command buffer %#x but no info for that command buffer. "+
				"Was the command buffer incorrectly destroyed?", uint64(mem), uint64(cb))
	}

	if !memInfo.hasCommandBuffer(cb) {
		memInfo.CommandBufferBindings = append(memInfo.CommandBufferBindings, cb)
		memInfo.RefCount++
	}
	if !cbInfo.hasMemoryRef(mem) {
		cbInfo.MemoryRefs = append(cbInfo.MemoryRefs, mem)
	}
	return false
}

// ClearCBRefs unwires every memory reference held by the command buffer,
// decrementing each memory object's reference count.
func (s *DeviceState) ClearCBRefs(cb CommandBuffer) bool {
	cbInfo, found := s.commandBuffers.Get(cb)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidCB, PrefixMem,
			"Unable to find global command buffer info %#x for deletion", uint64(cb))
	}

	for _, mem := range cbInfo.MemoryRefs {
		memInfo, memFound := s.mem.Get(mem)
		if !memFound {
			continue
		}
		if memInfo.removeCommandBuffer(cb) {
			memInfo.RefCount--
		}
	}
	cbInfo.MemoryRefs = nil
	return false
}

// CheckCBComplete reports whether the command buffer's most recent
// submission has retired. A never-submitted command buffer is complete. An
// in-flight command buffer logs an informational note naming the pending
// fence.
func (s *DeviceState) CheckCBComplete(cb CommandBuffer) (complete bool, skip bool) {
	cbInfo, found := s.commandBuffers.Get(cb)
	if !found {
		skip = s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidCB, PrefixMem,
			"Unable to find global command buffer info %#x to check for completion", uint64(cb))
		return false, skip
	}

	if cbInfo.LastSubmittedQueue == NullQueue {
		return true, false
	}

	queueInfo, found := s.queues.Get(cbInfo.LastSubmittedQueue)
	if !found {
		skip = s.reporter.Log(report.SeverityError, report.ObjectQueue, uint64(cbInfo.LastSubmittedQueue), report.CodeInvalidObject, PrefixMem,
			"Command buffer %#x was last submitted on queue %#x, which is not in the queue list",
			uint64(cb), uint64(cbInfo.LastSubmittedQueue))
		return false, skip
	}

	if cbInfo.FenceID > queueInfo.LastRetiredID {
		s.reporter.Log(report.SeverityInfo, report.ObjectCommandBuffer, uint64(cb), report.CodeNone, PrefixMem,
			"fence %#x for command buffer %#x has not been checked for completion",
			uint64(cbInfo.LastSubmittedFence), uint64(cb))
		return false, false
	}
	return true, false
}

// RemoveCommandBuffer unwires the command buffer's memory references and
// deletes its record.
func (s *DeviceState) RemoveCommandBuffer(cb CommandBuffer) bool {
	skip := s.ClearCBRefs(cb)
	s.commandBuffers.Delete(cb)
	return skip
}

// TeardownCommandBuffers clears every command buffer's references during
// device teardown, then empties the table.
func (s *DeviceState) TeardownCommandBuffers() bool {
	skip := false
	s.commandBuffers.Iter(func(cb CommandBuffer, cbInfo *CommandBufferState) bool {
		if len(cbInfo.MemoryRefs) > 0 {
			s.reporter.Log(report.SeverityInfo, report.ObjectCommandBuffer, uint64(cb), report.CodeNone, PrefixMem,
				"Command buffer %#x still holds references to %d memory objects at teardown", uint64(cb), len(cbInfo.MemoryRefs))
		}
		if s.ClearCBRefs(cb) {
			skip = true
		}
		return false
	})
	s.commandBuffers = newCommandBufferTable()
	return skip
}
