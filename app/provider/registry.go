package provider

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProviderNotSupported = errors.New("provider is not supported")

// Registry resolves checkout providers by case-insensitive name.
type Registry struct {
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		byName[registryKey(p.Name())] = p
	}
	return &Registry{byName: byName}
}

func (r *Registry) Get(name string) (Provider, error) {
	if r != nil {
		if p, ok := r.byName[registryKey(name)]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProviderNotSupported, name)
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
