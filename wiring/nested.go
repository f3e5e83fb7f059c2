package wiring

import (
	"fmt"

	"github.com/tsflow/engine/engine"
)

// ValidateMultiplexedArgs is BuildNestedNode's wiring-time check (spec.md
// §6): a nested operator (map/reduce/switch) must declare at least the
// driving key argument among its multiplexed args, and must not repeat a
// name. The nested package's NewMapTSD/NewReduceTSD/NewSwitch
// constructors do the actual wiring directly against concrete Go types;
// this function is the build-time guard that runs before any of them are
// called, turning a malformed declaration into a WiringError rather than
// a confusing runtime panic later.
func ValidateMultiplexedArgs(multiplexedArgs []string, keyArg string) error {
	seen := make(map[string]bool, len(multiplexedArgs))
	for _, name := range multiplexedArgs {
		if name == "" {
			return engine.NewWiringError(nil, "multiplexed argument name must not be empty", nil)
		}
		if seen[name] {
			return engine.NewWiringError(nil, fmt.Sprintf("multiplexed argument %q declared twice", name), nil)
		}
		seen[name] = true
	}
	if keyArg != "" && !seen[keyArg] {
		return engine.NewWiringError(nil, fmt.Sprintf("key argument %q is not among the declared multiplexed arguments", keyArg), nil)
	}
	return nil
}
