package state

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/memtrack/report"
)

// FreeMemoryObject validates and applies one memory free. Completed command
// buffers still referencing the memory are unwired first; in-flight ones
// are left in place and reported. Lingering references are diagnostic, not
// fatal: both sides of the graph are cleared and the record is removed.
//
// internal frees come from the tracker itself (swapchain teardown) and are
// allowed to remove the zero-size records backing WSI images.
func (s *DeviceState) FreeMemoryObject(mem DeviceMemory, internal bool) bool {
	memInfo, found := s.mem.Get(mem)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidMemObj, PrefixMem,
			"Couldn't find memory info object for %#x. Was %#x never allocated or previously freed?", uint64(mem), uint64(mem))
	}

	if memInfo.AllocInfo.AllocationSize == 0 && !internal {
		return s.reporter.Log(report.SeverityWarn, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidMemObj, PrefixMem,
			"Attempting to free memory associated with a persistent image %#x, this should not be explicitly freed", uint64(mem))
	}

	skip := false

	// Unwire any command buffers whose submissions have retired
	pending := make([]CommandBuffer, len(memInfo.CommandBufferBindings))
	copy(pending, memInfo.CommandBufferBindings)
	for _, cb := range pending {
		complete, checkSkip := s.CheckCBComplete(cb)
		if checkSkip {
			skip = true
		}
		if complete {
			if s.ClearCBRefs(cb) {
				skip = true
			}
		}
	}

	if memInfo.RefCount != 0 {
		if s.reportMemReferencesAndCleanUp(memInfo) {
			skip = true
		}
	}

	s.mem.Delete(mem)
	return skip
}

// reportMemReferencesAndCleanUp reports every lingering command-buffer and
// resource binding on a memory object being freed, then clears both sides
// of the graph so the record can be removed consistently.
func (s *DeviceState) reportMemReferencesAndCleanUp(memInfo *MemoryObject) bool {
	references := len(memInfo.CommandBufferBindings) + len(memInfo.ObjBindings)

	skip := s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(memInfo.Handle), report.CodeFreedMemRef, PrefixMem,
		"Attempting to free memory object %#x which still contains %d references", uint64(memInfo.Handle), references)

	for _, cb := range memInfo.CommandBufferBindings {
		s.reporter.Log(report.SeverityInfo, report.ObjectCommandBuffer, uint64(cb), report.CodeFreedMemRef, PrefixMem,
			"Command buffer %#x still has a reference to memory object %#x", uint64(cb), uint64(memInfo.Handle))

		if cbInfo, found := s.commandBuffers.Get(cb); found {
			for i, ref := range cbInfo.MemoryRefs {
				if ref == memInfo.Handle {
					cbInfo.MemoryRefs = append(cbInfo.MemoryRefs[:i], cbInfo.MemoryRefs[i+1:]...)
					break
				}
			}
		}
	}
	memInfo.CommandBufferBindings = nil

	for _, bound := range memInfo.ObjBindings {
		s.reporter.Log(report.SeverityInfo, bound.Kind, bound.Handle, report.CodeFreedMemRef, PrefixMem,
			"%s %#x still has a reference to memory object %#x", bound.Kind, bound.Handle, uint64(memInfo.Handle))

		if resource, found := s.Resource(bound.Kind, bound.Handle); found {
			resource.Memory = NullMemory
		}
	}
	memInfo.ObjBindings = nil

	memInfo.RefCount = 0
	return skip
}

// ValidateUsageFlags checks a resource's creation-time usage bits against
// the bits an intercepted call requires. With strict set, every desired bit
// must be present; otherwise any overlap passes. An unknown resource is not
// reported here, matching the source: presence is checked by the binding
// paths.
func (s *DeviceState) ValidateUsageFlags(kind report.ObjectKind, handle uint64, desired uint32, strict bool, apiName, usageString string) bool {
	resource, found := s.Resource(kind, handle)
	if !found {
		return false
	}

	actual := resource.UsageFlags()
	var correct bool
	if strict {
		correct = actual&desired == desired
	} else {
		correct = actual&desired != 0
	}
	if correct {
		return false
	}

	return s.reporter.Log(report.SeverityError, kind, handle, report.CodeInvalidUsageFlag, PrefixMem,
		"Invalid usage flag for %s %#x used by %s. In this case, %s should have %s set during creation",
		kind, handle, apiName, kind, usageString)
}

// ValidateMap checks a map request against the allocation bounds and the
// memory type's host-visibility.
func (s *DeviceState) ValidateMap(mem DeviceMemory, offset, size int) bool {
	memInfo, found := s.mem.Get(mem)
	if !found {
		return false
	}

	skip := false
	typeIndex := memInfo.AllocInfo.MemoryTypeIndex
	if typeIndex >= 0 && typeIndex < len(s.memProps.MemoryTypes) {
		propertyFlags := s.memProps.MemoryTypes[typeIndex].PropertyFlags
		if propertyFlags&core1_0.MemoryPropertyHostVisible == 0 {
			skip = s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidState, PrefixMem,
				"Mapping memory without MemoryPropertyHostVisible set: memory object %#x", uint64(mem))
		}
	}

	if offset+size > memInfo.AllocInfo.AllocationSize {
		if s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidMap, PrefixMem,
			"Mapping memory from %d to %d with total allocation size %d",
			offset, offset+size, memInfo.AllocInfo.AllocationSize) {
			skip = true
		}
	}
	return skip
}

// ReportMemoryLeaks emits one MEMORY_LEAK warning per memory object with a
// nonzero allocation size still present at device teardown.
func (s *DeviceState) ReportMemoryLeaks() bool {
	skip := false
	s.mem.Iter(func(mem DeviceMemory, memInfo *MemoryObject) bool {
		if memInfo.AllocInfo.AllocationSize == 0 {
			return false
		}
		if s.reporter.Log(report.SeverityWarn, report.ObjectDeviceMemory, uint64(mem), report.CodeMemoryLeak, PrefixMem,
			"Memory object %#x has not been freed. You should clean up this memory by calling FreeMemory(%#x) prior to DestroyDevice",
			uint64(mem), uint64(mem)) {
			skip = true
		}
		return false
	})
	return skip
}
