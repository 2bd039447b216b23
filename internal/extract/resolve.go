package extract

import "strings"

// ParamSource exposes the parameters of a template node.
type ParamSource interface {
	Param(key string) (string, bool)
}

// Resolve returns the value of the first key in keys that is present on node
// with a non-blank value. Keys are tried strictly in the given order.
func Resolve(node ParamSource, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := node.Param(key)
		if !ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}
