package utils

import (
	"testing"

	"github.com/lib/pq"
)

func TestMatchesPermission(t *testing.T) {
	tests := []struct {
		name         string
		userPerm     string
		requiredPerm string
		expected     bool
	}{
		// Exact matches
		{"exact match same permission", "forms:edit", "forms:edit", true},
		{"exact match different action", "forms:edit", "forms:read", false},
		{"exact match different resource", "forms:edit", "jobs:edit", false},

		// Full wildcard tests
		{"full wildcard *:*", "*:*", "forms:edit", true},
		{"full wildcard *", "*", "anything:goes", true},
		{"full wildcard matches jobs", "*:*", "jobs:delete", true},

		// Resource wildcard tests
		{"resource wildcard matches edit", "forms:*", "forms:edit", true},
		{"resource wildcard matches read", "forms:*", "forms:read", true},
		{"resource wildcard other resource", "forms:*", "jobs:edit", false},

		// Action wildcard tests
		{"action wildcard matches forms", "*:read", "forms:read", true},
		{"action wildcard matches reports", "*:read", "reports:read", true},
		{"action wildcard other action", "*:read", "forms:edit", false},

		// Old format backward compatibility
		{"old format exact match", "read_reports", "read_reports", true},
		{"old format no match", "read_reports", "create_reports", false},
		{"old format with wildcard", "*:*", "old_format_perm", true},

		// Edge cases
		{"empty required permission", "forms:edit", "", false},
		{"empty user permission", "", "forms:edit", false},
		{"both empty", "", "", true},
		{"single part permission", "admin", "admin", true},
		{"single part vs multi-part", "admin", "admin:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchesPermission(tt.userPerm, tt.requiredPerm)
			if result != tt.expected {
				t.Errorf("MatchesPermission(%q, %q) = %v, expected %v",
					tt.userPerm, tt.requiredPerm, result, tt.expected)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	granted := pq.StringArray{"forms:read", "reports:*"}

	if !HasPermission(granted, "forms:read") {
		t.Error("expected forms:read to be granted")
	}
	if !HasPermission(granted, "reports:export") {
		t.Error("expected reports:export to be granted via wildcard")
	}
	if HasPermission(granted, "jobs:delete") {
		t.Error("did not expect jobs:delete to be granted")
	}
	if HasPermission(nil, "forms:read") {
		t.Error("empty grant list should deny")
	}
}
