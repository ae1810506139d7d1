package patch

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// UpdateArgs is the argument object of the update tool call.
type UpdateArgs struct {
	Ops []Operation `json:"ops" jsonschema:"description=RFC6902 operations that update the workout request"`
}
