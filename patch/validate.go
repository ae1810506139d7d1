package patch

import (
	"fmt"
	"strings"
)

// ValidatePatchOperations rejects operations outside allowedPaths and any operation that
// would clear a value. An empty allowedPaths set allows every path.
func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	if len(ops) == 0 {
		return nil
	}
	for i, op := range ops {
		if err := validateOperation(op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if err := validatePathAllowed(op.Path, allowedPaths); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validateOperation(op Operation) error {
	switch op.Op {
	case OperationAdd, OperationReplace:
	default:
		return fmt.Errorf("op %q is not allowed", op.Op)
	}
	if isZeroValue(op.Value) {
		return fmt.Errorf("op %q on %q would clear the value", op.Op, op.Path)
	}
	return nil
}

// isZeroValue reports values that decode to an unset field: null, "", 0 and empty lists.
func isZeroValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

func validatePathAllowed(path string, allowedPaths map[string]bool) error {
	if len(allowedPaths) == 0 {
		return nil
	}
	if allowedPaths[path] {
		return nil
	}
	return fmt.Errorf("path %q is not in the allowed paths set", path)
}
