package state

import (
	"github.com/vkngwrapper/memtrack/report"
)

// SetBinding binds a resource to a memory object, wiring both sides of the
// graph. Binding to NullMemory is reported and ignored. A resource that is
// already bound reports REBIND_OBJECT, but the new binding still replaces
// the old one. The returned flag advises skipping the intercepted call.
func (s *DeviceState) SetBinding(kind report.ObjectKind, handle uint64, mem DeviceMemory, apiName string) bool {
	if mem == NullMemory {
		return s.reporter.Log(report.SeverityWarn, kind, handle, report.CodeInvalidMemObj, PrefixMem,
			"In %s, attempting to bind %s %#x to null memory", apiName, kind, handle)
	}

	resource, found := s.Resource(kind, handle)
	if !found {
		return s.reporter.Log(report.SeverityError, kind, handle, report.CodeMissingMemBindings, PrefixMem,
			"In %s, attempting to update binding of %s %#x that is not in the global list", apiName, kind, handle)
	}

	memInfo, found := s.mem.Get(mem)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidMemObj, PrefixMem,
			"In %s, while trying to bind memory for %s %#x, couldn't find info for memory object %#x", apiName, kind, handle, uint64(mem))
	}

	skip := false
	if resource.Memory != NullMemory {
		skip = s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeRebindObject, PrefixMem,
			"In %s, attempting to bind memory %#x to %s %#x which is already bound to memory object %#x",
			apiName, uint64(mem), kind, handle, uint64(resource.Memory))

		if prevInfo, prevFound := s.mem.Get(resource.Memory); prevFound {
			if prevInfo.removeBinding(kind, handle) {
				prevInfo.RefCount--
			}
		}
	}

	memInfo.ObjBindings = append(memInfo.ObjBindings, BoundObject{Kind: kind, Handle: handle})
	memInfo.RefCount++
	resource.Memory = mem
	return skip
}

// SetSparseBinding is SetBinding for sparse binds: a null memory handle
// clears the binding instead of warning, and a bind already present in the
// memory object's set is not double-counted.
func (s *DeviceState) SetSparseBinding(kind report.ObjectKind, handle uint64, mem DeviceMemory, apiName string) bool {
	if mem == NullMemory {
		return s.ClearBinding(kind, handle)
	}

	skip := false
	resource, found := s.Resource(kind, handle)
	if !found {
		skip = s.reporter.Log(report.SeverityError, kind, handle, report.CodeMissingMemBindings, PrefixMem,
			"In %s, attempting to update binding of %s %#x that is not in the global list", apiName, kind, handle)
	}

	memInfo, found := s.mem.Get(mem)
	if !found {
		if s.reporter.Log(report.SeverityError, report.ObjectDeviceMemory, uint64(mem), report.CodeInvalidMemObj, PrefixMem,
			"In %s, while trying to bind memory for %s %#x, couldn't find info for memory object %#x", apiName, kind, handle, uint64(mem)) {
			skip = true
		}
		return skip
	}

	if !memInfo.hasBinding(kind, handle) {
		memInfo.ObjBindings = append(memInfo.ObjBindings, BoundObject{Kind: kind, Handle: handle})
		memInfo.RefCount++
	}
	if resource != nil {
		resource.Memory = mem
	}
	return skip
}

// ClearBinding removes the resource's side of the binding and the matching
// entry in the memory object's set. An unbound resource warns; a binding
// whose memory-side entry is missing reports INVALID_OBJECT.
func (s *DeviceState) ClearBinding(kind report.ObjectKind, handle uint64) bool {
	resource, found := s.Resource(kind, handle)
	if !found {
		return false
	}

	memInfo, memFound := s.mem.Get(resource.Memory)
	if !memFound {
		return s.reporter.Log(report.SeverityWarn, kind, handle, report.CodeMemObjClearEmptyBindings, PrefixMem,
			"Attempting to clear memory binding on %s %#x but it has no binding", kind, handle)
	}

	if memInfo.removeBinding(kind, handle) {
		memInfo.RefCount--
		resource.Memory = NullMemory
		return false
	}

	return s.reporter.Log(report.SeverityError, kind, handle, report.CodeInvalidObject, PrefixMem,
		"While trying to clear memory binding for %s %#x, unable to find that object referenced by memory object %#x",
		kind, handle, uint64(resource.Memory))
}

// Binding returns the memory a resource is bound to. An existing but
// unbound resource reports MISSING_MEM_BINDINGS; an unknown resource
// reports INVALID_OBJECT. Either way the returned memory is NullMemory and
// the skip flag is set.
func (s *DeviceState) Binding(kind report.ObjectKind, handle uint64) (DeviceMemory, bool) {
	resource, found := s.Resource(kind, handle)
	if !found {
		return NullMemory, s.reporter.Log(report.SeverityError, kind, handle, report.CodeInvalidObject, PrefixMem,
			"Trying to get memory binding for object %#x but no such object in the %s list", handle, kind)
	}
	if resource.Memory == NullMemory {
		return NullMemory, s.reporter.Log(report.SeverityError, kind, handle, report.CodeMissingMemBindings, PrefixMem,
			"Trying to get memory binding for object %#x but object has no memory binding", handle)
	}
	return resource.Memory, false
}
