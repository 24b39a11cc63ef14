// Package access is the role and classification decision engine. It is
// pure: no I/O, no clock, no globals beyond the static tables below.
package access

import (
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Action is an operation checked against the policy.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Reason explains a Decision in machine-readable form.
type Reason string

const (
	ReasonOwner                Reason = "owner"
	ReasonCapability           Reason = "capability"
	ReasonMissingCapability    Reason = "missing_capability"
	ReasonClassificationHidden Reason = "classification_hidden"
	ReasonSensitiveHidden      Reason = "sensitive_hidden"
	ReasonUnknownRole          Reason = "unknown_role"
	ReasonUnknownAction        Reason = "unknown_action"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

type capabilities struct {
	create        bool
	editAny       bool
	deleteAny     bool
	viewSensitive bool

	// selfAssign marks roles an unauthenticated caller may request for
	// itself. Privileged roles are granted by an operator only.
	selfAssign bool
}

var roleCapabilities = map[models.Role]capabilities{
	models.RoleAdmin:   {create: true, editAny: true, deleteAny: true, viewSensitive: true},
	models.RoleManager: {create: true, viewSensitive: true},
	models.RoleMember:  {create: true, selfAssign: true},
	models.RoleViewer:  {selfAssign: true},
}

// classificationOrder is the canonical ordering used when listing levels.
var classificationOrder = []models.Classification{
	models.ClassificationPublic,
	models.ClassificationInternal,
	models.ClassificationConfidential,
	models.ClassificationRestricted,
}

var roleVisibility = map[models.Role]map[models.Classification]bool{
	models.RoleAdmin: {
		models.ClassificationPublic:       true,
		models.ClassificationInternal:     true,
		models.ClassificationConfidential: true,
		models.ClassificationRestricted:   true,
	},
	models.RoleManager: {
		models.ClassificationPublic:       true,
		models.ClassificationInternal:     true,
		models.ClassificationConfidential: true,
	},
	models.RoleMember: {
		models.ClassificationPublic:   true,
		models.ClassificationInternal: true,
	},
	models.RoleViewer: {
		models.ClassificationPublic:   true,
		models.ClassificationInternal: true,
	},
}

// CheckAccess decides whether principal may perform action on entry.
// Unknown roles and actions are denied. For ActionCreate the entry is
// ignored and only the role's create capability counts.
func CheckAccess(principal models.Principal, entry models.Entry, action Action) Decision {
	caps, ok := roleCapabilities[principal.Role]
	if !ok {
		return deny(ReasonUnknownRole)
	}

	switch action {
	case ActionCreate:
		if caps.create {
			return allow(ReasonCapability)
		}
		return deny(ReasonMissingCapability)
	case ActionView, ActionEdit, ActionDelete:
	default:
		return deny(ReasonUnknownAction)
	}

	if principal.ID != "" && entry.OwnerID == principal.ID {
		return allow(ReasonOwner)
	}

	if !roleVisibility[principal.Role][entry.Classification] {
		return deny(ReasonClassificationHidden)
	}

	switch action {
	case ActionView:
		if entry.IsSensitive && !caps.viewSensitive {
			return deny(ReasonSensitiveHidden)
		}
		return allow(ReasonCapability)
	case ActionEdit:
		return gate(caps.editAny)
	default:
		return gate(caps.deleteAny)
	}
}

func gate(has bool) Decision {
	if has {
		return allow(ReasonCapability)
	}
	return deny(ReasonMissingCapability)
}

func CanCreate(role models.Role) bool {
	return roleCapabilities[role].create
}

func CanViewSensitive(role models.Role) bool {
	return roleCapabilities[role].viewSensitive
}

// CanSelfAssign reports whether role may be chosen at public signup.
func CanSelfAssign(role models.Role) bool {
	return roleCapabilities[role].selfAssign
}

// VisibleClassifications returns the levels role may see, least
// restrictive first. Unknown roles see nothing.
func VisibleClassifications(role models.Role) []models.Classification {
	out := make([]models.Classification, 0, len(classificationOrder))
	for _, c := range classificationOrder {
		if roleVisibility[role][c] {
			out = append(out, c)
		}
	}
	return out
}

// ListScope is the listing equivalent of CheckAccess(view): a row is in
// scope exactly when CheckAccess would allow viewing it.
func ListScope(principal models.Principal) models.Scope {
	if _, ok := roleCapabilities[principal.Role]; !ok {
		return models.Scope{Classifications: []models.Classification{}}
	}
	return models.Scope{
		OwnerID:          principal.ID,
		Classifications:  VisibleClassifications(principal.Role),
		IncludeSensitive: CanViewSensitive(principal.Role),
	}
}

// InScope evaluates scope against a single entry. Storage backends that
// cannot push the scope into a query use it as a post-filter.
func InScope(scope models.Scope, entry models.Entry) bool {
	if scope.OwnerID != "" && entry.OwnerID == scope.OwnerID {
		return true
	}
	if entry.IsSensitive && !scope.IncludeSensitive {
		return false
	}
	for _, c := range scope.Classifications {
		if c == entry.Classification {
			return true
		}
	}
	return false
}
