package state

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// WriteState streams a JSON summary of the memory-object and command-buffer
// tables, including every cross-reference. The tracker dumps it before
// device teardown and exposes it on demand.
func (s *DeviceState) WriteState(writer *jwriter.Writer) {
	rootObj := writer.Object()
	defer rootObj.End()

	memArray := rootObj.Name("MemoryObjects").Array()
	s.mem.Iter(func(mem DeviceMemory, memInfo *MemoryObject) bool {
		memObj := memArray.Object()
		memObj.Name("Handle").String(fmt.Sprintf("%#x", uint64(mem)))
		memObj.Name("AllocationSize").Int(memInfo.AllocInfo.AllocationSize)
		memObj.Name("MemoryTypeIndex").Int(memInfo.AllocInfo.MemoryTypeIndex)
		memObj.Name("RefCount").Int(memInfo.RefCount)

		bindingArray := memObj.Name("ObjectBindings").Array()
		for _, bound := range memInfo.ObjBindings {
			bindingObj := bindingArray.Object()
			bindingObj.Name("Kind").String(bound.Kind.String())
			bindingObj.Name("Handle").String(fmt.Sprintf("%#x", bound.Handle))
			bindingObj.End()
		}
		bindingArray.End()

		cbArray := memObj.Name("CommandBuffers").Array()
		for _, cb := range memInfo.CommandBufferBindings {
			cbArray.String(fmt.Sprintf("%#x", uint64(cb)))
		}
		cbArray.End()

		memObj.End()
		return false
	})
	memArray.End()

	cbArray := rootObj.Name("CommandBuffers").Array()
	s.commandBuffers.Iter(func(cb CommandBuffer, cbInfo *CommandBufferState) bool {
		cbObj := cbArray.Object()
		cbObj.Name("Handle").String(fmt.Sprintf("%#x", uint64(cb)))
		cbObj.Name("FenceID").Int(int(cbInfo.FenceID))
		cbObj.Name("LastSubmittedFence").String(fmt.Sprintf("%#x", uint64(cbInfo.LastSubmittedFence)))
		cbObj.Name("LastSubmittedQueue").String(fmt.Sprintf("%#x", uint64(cbInfo.LastSubmittedQueue)))

		refArray := cbObj.Name("MemoryRefs").Array()
		for _, mem := range cbInfo.MemoryRefs {
			refArray.String(fmt.Sprintf("%#x", uint64(mem)))
		}
		refArray.End()

		cbObj.End()
		return false
	})
	cbArray.End()
}
