package domain

import (
	"encoding/json"
	"strings"
)

// OperationToken is the provider-issued continuation for a long-running video
// generation job. Name is the provider's operation identifier (it nests a
// model name, so it contains slashes); Raw is the provider's full operation
// payload, round-tripped byte for byte because the refresh call needs it.
type OperationToken struct {
	Name string          `json:"name"`
	Raw  json.RawMessage `json:"raw"`
}

// Valid reports whether the token is structurally usable for a refresh call.
// A token that fails this check is treated as NOT_FOUND at the store
// boundary rather than surfacing a provider-side decoding failure later.
func (t OperationToken) Valid() bool {
	if strings.TrimSpace(t.Name) == "" || len(t.Raw) == 0 {
		return false
	}
	return json.Valid(t.Raw)
}

// Done peeks at the raw payload's terminal flag without interpreting the
// rest. Used to detect the first poll that observes a terminal state, so
// side effects such as history recording happen exactly once.
func (t OperationToken) Done() bool {
	var probe struct {
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(t.Raw, &probe); err != nil {
		return false
	}
	return probe.Done
}
