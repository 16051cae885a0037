//go:build !debug_mem_track

package debug

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_track build tag is present
func DebugValidate(validatable Validatable) {
}
