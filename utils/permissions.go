package utils

import (
	"strings"

	"github.com/lib/pq"
)

// MatchesPermission checks if a user permission matches the required one.
// Supports wildcard patterns:
//
//   - "*:*" or "*" matches everything (admin wildcard)
//   - "forms:*" matches all actions on the forms resource
//   - "*:read" matches read on every resource
//   - "forms:edit" exact match
//
// Permission format: "resource:action".
func MatchesPermission(userPerm, requiredPerm string) bool {
	if userPerm == requiredPerm {
		return true
	}

	if userPerm == "*:*" || userPerm == "*" {
		return true
	}

	userParts := strings.Split(userPerm, ":")
	reqParts := strings.Split(requiredPerm, ":")

	// Old single-word permissions only ever match exactly.
	if len(userParts) < 2 || len(reqParts) < 2 {
		return userPerm == requiredPerm
	}

	resourceMatch := userParts[0] == "*" || userParts[0] == reqParts[0]
	actionMatch := userParts[1] == "*" || userParts[1] == reqParts[1]

	return resourceMatch && actionMatch
}

// HasPermission reports whether any of the granted permissions satisfies
// the required one.
func HasPermission(granted pq.StringArray, requiredPerm string) bool {
	for _, p := range granted {
		if MatchesPermission(p, requiredPerm) {
			return true
		}
	}
	return false
}
