package report

// MessageCode is the closed taxonomy of tracker diagnostics. Every emitted
// message carries exactly one code; CodeNone marks informational output.
type MessageCode int32

const (
	CodeNone MessageCode = iota
	CodeInvalidCB
	CodeInvalidMemObj
	CodeInvalidObject
	CodeInvalidUsageFlag
	CodeInvalidMap
	CodeInvalidState
	CodeInvalidFenceState
	CodeMissingMemBindings
	CodeRebindObject
	CodeMemObjClearEmptyBindings
	CodeFreedMemRef
	CodeMemoryLeak
	CodeResetCBWhileInFlight
)

func (c MessageCode) String() string {
	switch c {
	case CodeNone:
		return "NONE"
	case CodeInvalidCB:
		return "INVALID_CB"
	case CodeInvalidMemObj:
		return "INVALID_MEM_OBJ"
	case CodeInvalidObject:
		return "INVALID_OBJECT"
	case CodeInvalidUsageFlag:
		return "INVALID_USAGE_FLAG"
	case CodeInvalidMap:
		return "INVALID_MAP"
	case CodeInvalidState:
		return "INVALID_STATE"
	case CodeInvalidFenceState:
		return "INVALID_FENCE_STATE"
	case CodeMissingMemBindings:
		return "MISSING_MEM_BINDINGS"
	case CodeRebindObject:
		return "REBIND_OBJECT"
	case CodeMemObjClearEmptyBindings:
		return "MEM_OBJ_CLEAR_EMPTY_BINDINGS"
	case CodeFreedMemRef:
		return "FREED_MEM_REF"
	case CodeMemoryLeak:
		return "MEMORY_LEAK"
	case CodeResetCBWhileInFlight:
		return "RESET_CB_WHILE_IN_FLIGHT"
	}
	return "UNKNOWN"
}
