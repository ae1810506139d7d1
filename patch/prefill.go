package patch

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/bytedance/sonic"
)

// GeneratePatchesFromValues returns the operations that copy every non-zero value of
// extracted onto current. Zero values in extracted never produce an operation, so the
// result can only set or overwrite fields.
func GeneratePatchesFromValues[T any](current, extracted T) ([]Operation, error) {
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current state: %w", err)
	}

	extractedJSON, err := sonic.Marshal(extracted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extracted state: %w", err)
	}

	var currentMap map[string]any
	if err := sonic.Unmarshal(currentJSON, &currentMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current state: %w", err)
	}

	var extractedMap map[string]any
	if err := sonic.Unmarshal(extractedJSON, &extractedMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extracted state: %w", err)
	}

	patches := make([]Operation, 0)
	generatePatchesFromMap("", currentMap, extractedMap, &patches)
	sort.Slice(patches, func(i, j int) bool {
		return patches[i].Path < patches[j].Path
	})
	return patches, nil
}

func generatePatchesFromMap(prefix string, current, extracted map[string]any, patches *[]Operation) {
	for key, value := range extracted {
		if isPrefillZeroValue(value) {
			continue
		}

		path := prefix + "/" + escapeJSONPointer(key)
		currentValue, existsInCurrent := current[key]

		if nested, ok := value.(map[string]any); ok {
			if currentNested, ok := currentValue.(map[string]any); ok {
				generatePatchesFromMap(path, currentNested, nested, patches)
			} else {
				*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: value})
			}
			continue
		}

		if !existsInCurrent {
			*patches = append(*patches, Operation{Op: OperationAdd, Path: path, Value: value})
		} else if !reflect.DeepEqual(currentValue, value) {
			*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: value})
		}
	}
}

func escapeJSONPointer(token string) string {
	result := ""
	for _, ch := range token {
		switch ch {
		case '~':
			result += "~0"
		case '/':
			result += "~1"
		default:
			result += string(ch)
		}
	}
	return result
}

func isPrefillZeroValue(v any) bool {
	if v == nil {
		return true
	}

	switch val := v.(type) {
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
