package llm

import (
	"os"
	"strings"
)

// Credential reports whether a vendor key is configured. The key itself is
// only reachable through Credentials.Key.
type Credential struct {
	Provider ProviderID `json:"provider"`
	EnvVar   string     `json:"env_var"`
	Present  bool       `json:"present"`
}

// Credentials is an immutable snapshot of vendor keys taken once at start.
type Credentials struct {
	keys map[ProviderID]string
}

// ResolveCredentials reads every vendor variable through lookup. Pass
// os.LookupEnv in production and a map-backed func in tests.
func ResolveCredentials(lookup func(string) (string, bool)) Credentials {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	keys := make(map[ProviderID]string, len(descriptors))
	for _, d := range descriptors {
		if v, ok := lookup(d.EnvVar); ok {
			if v = strings.TrimSpace(v); v != "" {
				keys[d.ID] = v
			}
		}
	}
	return Credentials{keys: keys}
}

// NewCredentials builds a snapshot from explicit keys. Empty values count as
// absent.
func NewCredentials(keys map[ProviderID]string) Credentials {
	c := Credentials{keys: make(map[ProviderID]string, len(keys))}
	for id, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			c.keys[id] = k
		}
	}
	return c
}

func (c Credentials) Present(id ProviderID) bool {
	_, ok := c.keys[id]
	return ok
}

func (c Credentials) Key(id ProviderID) string {
	return c.keys[id]
}

func (c Credentials) Get(id ProviderID) Credential {
	return Credential{Provider: id, EnvVar: EnvVar(id), Present: c.Present(id)}
}

// All lists one credential per known vendor in table order.
func (c Credentials) All() []Credential {
	out := make([]Credential, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, c.Get(d.ID))
	}
	return out
}
