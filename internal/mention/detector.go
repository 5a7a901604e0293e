// Package mention implements target-user mention detection for inbound
// group messages.
package mention

import "strings"

// Detect reports whether text mentions the target handle, i.e. contains
// "@"+targetHandle in any casing. An empty handle never matches: with no
// target configured, detection fails closed rather than open.
func Detect(text, targetHandle string) bool {
	if targetHandle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(targetHandle))
}
