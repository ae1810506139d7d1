package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Apply merges ops into current through its JSON form and decodes the result back into T.
// On any error current is returned unchanged.
func Apply[T any](current T, ops []Operation) (T, error) {
	if len(ops) == 0 {
		return current, nil
	}
	doc, err := sonic.Marshal(current)
	if err != nil {
		return current, fmt.Errorf("failed to encode document: %w", err)
	}
	members, err := topLevelMembers(doc)
	if err != nil {
		return current, err
	}
	raw, err := sonic.Marshal(upsert(members, ops))
	if err != nil {
		return current, fmt.Errorf("failed to encode operations: %w", err)
	}
	decoded, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return current, fmt.Errorf("failed to decode operations: %w", err)
	}
	patched, err := decoded.Apply(doc)
	if err != nil {
		return current, fmt.Errorf("failed to apply operations: %w", err)
	}
	var result T
	if err := sonic.Unmarshal(patched, &result); err != nil {
		return current, fmt.Errorf("patched document does not fit %T: %w", current, err)
	}
	return result, nil
}

// upsert turns replace on a top-level member the document lacks into add. Unset slots are
// omitted from the encoded document, so the first value for a slot often arrives as replace.
func upsert(members map[string]bool, ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		if name, ok := memberName(op.Path); ok && op.Op == OperationReplace && !members[name] {
			op.Op = OperationAdd
		}
		out[i] = op
	}
	return out
}

func topLevelMembers(doc []byte) (map[string]bool, error) {
	var obj map[string]any
	if err := sonic.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	members := make(map[string]bool, len(obj))
	for k := range obj {
		members[k] = true
	}
	return members, nil
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// memberName returns the member a single-token JSON pointer such as "/goal" names.
func memberName(path string) (string, bool) {
	token, ok := strings.CutPrefix(path, "/")
	if !ok || strings.Contains(token, "/") {
		return "", false
	}
	return pointerUnescaper.Replace(token), true
}
