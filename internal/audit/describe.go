package audit

import (
	"fmt"
	"strings"
)

var fixedLabels = map[string]string{
	"login":                "User signed in",
	"logout":               "User signed out",
	"password_changed":     "Password changed",
	"admin_password_reset": "Password reset by admin",
	"signout_others":       "Other sessions signed out",
	"role_changed":         "User role changed",
	"profile_deleted":      "User profile deleted",
}

var entityLabels = map[string]string{
	"news":         "News",
	"announcement": "Announcement",
	"committee":    "Committee",
	"event":        "Event",
	"project":      "Project",
}

var verbLabels = []struct {
	suffix string
	format string
}{
	{"_created_published", "%s published (new)"},
	{"_created_draft", "%s drafted (new)"},
	{"_unpublished", "%s unpublished"},
	{"_published", "%s published"},
	{"_updated", "%s updated"},
	{"_deleted", "%s deleted"},
}

// Describe returns a human-readable label for an action. Unknown actions are returned verbatim.
func Describe(action string, metadata map[string]any) string {
	if action == "deploy_triggered" {
		if status, ok := metadata["status"]; ok && status != nil {
			return fmt.Sprintf("Deploy triggered (status %v)", status)
		}
		return "Deploy triggered"
	}
	if label, ok := fixedLabels[action]; ok {
		if action == "role_changed" {
			if role, ok := metadata["role"].(string); ok && role != "" {
				return label + " to " + role
			}
		}
		return label
	}
	for _, v := range verbLabels {
		entity, ok := strings.CutSuffix(action, v.suffix)
		if !ok {
			continue
		}
		if name, ok := entityLabels[entity]; ok {
			return fmt.Sprintf(v.format, name)
		}
	}
	return action
}
