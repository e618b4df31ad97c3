package policy

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDenied = errors.New("permission denied")

type Operation string

const (
	OpGet    Operation = "get"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) IsRead() bool {
	return o == OpGet || o == OpList
}

func (o Operation) IsWrite() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// Principal is the authenticated caller. A nil principal is an anonymous
// guest.
type Principal struct {
	UID   string
	Email string
}

func (p *Principal) Authenticated() bool {
	return p != nil && strings.TrimSpace(p.UID) != ""
}

type Request struct {
	Collection string
	DocumentID string
	Operation  Operation
	Principal  *Principal
}

type Decision struct {
	Allowed bool
	// Rule is the collection rule that decided, empty for the default deny.
	Rule   string
	Reason string
}

type Condition int

const (
	Never Condition = iota
	Always
	OwnerOnly
)

type Rule struct {
	Collection string
	// Wildcard names the document id variable in the rendered rules.
	Wildcard string
	Comment  string
	Read     Condition
	Write    Condition
}

// Rules is the complete client access table. Anything not listed is denied.
var Rules = []Rule{
	{
		Collection: "order_public",
		Wildcard:   "trackingCode",
		Comment:    "Public tracking projection: readable by anyone, written by the backend only.",
		Read:       Always,
		Write:      Never,
	},
	{
		Collection: "users",
		Wildcard:   "userId",
		Comment:    "User profiles: owner only.",
		Read:       OwnerOnly,
		Write:      OwnerOnly,
	},
	{
		Collection: "orders",
		Wildcard:   "orderId",
		Comment:    "Orders: backend only.",
		Read:       Never,
		Write:      Never,
	},
	{
		Collection: "payments",
		Wildcard:   "paymentId",
		Comment:    "Payment intents: backend only.",
		Read:       Never,
		Write:      Never,
	},
}

func findRule(collection string) (Rule, bool) {
	for _, rule := range Rules {
		if rule.Collection == collection {
			return rule, true
		}
	}
	return Rule{}, false
}

func Evaluate(req Request) Decision {
	rule, ok := findRule(req.Collection)
	if !ok {
		return Decision{Reason: "no rule matches collection " + req.Collection}
	}

	var cond Condition
	switch {
	case req.Operation.IsRead():
		cond = rule.Read
	case req.Operation.IsWrite():
		cond = rule.Write
	default:
		return Decision{Rule: rule.Collection, Reason: "unknown operation " + string(req.Operation)}
	}

	switch cond {
	case Always:
		return Decision{Allowed: true, Rule: rule.Collection}
	case OwnerOnly:
		if !req.Principal.Authenticated() {
			return Decision{Rule: rule.Collection, Reason: "authentication required"}
		}
		if req.DocumentID == "" || req.Principal.UID != req.DocumentID {
			return Decision{Rule: rule.Collection, Reason: "principal does not own document"}
		}
		return Decision{Allowed: true, Rule: rule.Collection}
	default:
		return Decision{Rule: rule.Collection, Reason: "client access disabled"}
	}
}

func Authorize(req Request) error {
	decision := Evaluate(req)
	if decision.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s %s/%s: %s", ErrDenied, req.Operation, req.Collection, req.DocumentID, decision.Reason)
}
