package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/modconv/pkg/formats"
)

// paramFlag collects repeated "key[=value]" codec parameters.
type paramFlag formats.Params

func (p paramFlag) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if p[k] == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"="+p[k])
		}
	}
	return strings.Join(parts, ",")
}

func (p paramFlag) Set(v string) error {
	key, value, _ := strings.Cut(v, "=")
	if key == "" {
		return fmt.Errorf("parameter %q has no name", v)
	}
	p[key] = value
	return nil
}
