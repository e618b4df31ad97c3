package policy

import (
	"fmt"
	"strings"
)

func RenderFirestoreRules() string {
	var b strings.Builder

	b.WriteString("rules_version = '2';\n")
	b.WriteString("service cloud.firestore {\n")
	b.WriteString("  match /databases/{database}/documents {\n")

	for i, rule := range Rules {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "    // %s\n", rule.Comment)
		fmt.Fprintf(&b, "    match /%s/{%s} {\n", rule.Collection, rule.Wildcard)
		if rule.Read == rule.Write {
			fmt.Fprintf(&b, "      allow read, write: if %s;\n", renderCondition(rule.Read, rule.Wildcard))
		} else {
			fmt.Fprintf(&b, "      allow read: if %s;\n", renderCondition(rule.Read, rule.Wildcard))
			fmt.Fprintf(&b, "      allow write: if %s;\n", renderCondition(rule.Write, rule.Wildcard))
		}
		b.WriteString("    }\n")
	}

	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String()
}

func renderCondition(cond Condition, wildcard string) string {
	switch cond {
	case Always:
		return "true"
	case OwnerOnly:
		return "request.auth != null && request.auth.uid == " + wildcard
	default:
		return "false"
	}
}
