package scenario

import (
	"fmt"
	"sort"
)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.builders["triple"] = Triple
	r.builders["binsingle"] = BinarySingle
	return r
}

func (r *Registry) Register(name string, b Builder) { r.builders[name] = b }

func (r *Registry) Get(name string) (Builder, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return b, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
