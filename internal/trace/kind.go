package trace

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of step kinds a solver may emit.
type Kind uint8

const (
	KindInfo Kind = iota
	KindInit
	KindUpdate
	KindHighlight
	KindSolution
	KindPick
	KindReject
	KindSort
)

var kindNames = [...]string{
	KindInfo:      "INFO",
	KindInit:      "INIT",
	KindUpdate:    "UPDATE",
	KindHighlight: "HIGHLIGHT",
	KindSolution:  "SOLUTION",
	KindPick:      "PICK",
	KindReject:    "REJECT",
	KindSort:      "SORT",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid step kind %d", uint8(k))
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("step kind must be a string: %w", err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
