package schema

import (
	"fmt"
	"strings"
)

// Kind is the closed set of artifact kinds quill can generate.
type Kind int

const (
	Class Kind = iota + 1
	Handler
	ResourceBinding
)

// AllKinds lists every kind in a fixed order.
func AllKinds() []Kind {
	return []Kind{Class, Handler, ResourceBinding}
}

func (k Kind) String() string {
	switch k {
	case Class:
		return "Class"
	case Handler:
		return "Handler"
	case ResourceBinding:
		return "ResourceBinding"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// kindAliases maps lower-cased spellings to kinds.
var kindAliases = map[string]Kind{
	"class":            Class,
	"handler":          Handler,
	"resourcebinding":  ResourceBinding,
	"resource_binding": ResourceBinding,
}

// ParseKind accepts the canonical names case-insensitively and the
// snake_case aliases.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Class, Handler, ResourceBinding:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid kind %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
