package rbac

import (
	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

// GrantKind tags the variant held by a Grant
type GrantKind int

const (
	// GrantStatic grants are a fixed yes or no
	GrantStatic GrantKind = iota
	// GrantDynamic grants are decided by a predicate over the record being acted on
	GrantDynamic
)

func (k GrantKind) String() string {
	switch k {
	case GrantStatic:
		return "static"
	case GrantDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Predicate decides a conditional grant from the user and the record being
// acted on. data is whatever the caller passed as context; a predicate must
// return false for data of a type it does not understand.
type Predicate func(user *auth.User, data any) bool

// Grant is one cell of the role table
type Grant struct {
	kind      GrantKind
	allow     bool
	predicate Predicate
}

// Static returns a grant that always evaluates to allow
func Static(allow bool) Grant {
	return Grant{kind: GrantStatic, allow: allow}
}

// Dynamic returns a grant decided by pred at evaluation time
func Dynamic(pred Predicate) Grant {
	return Grant{kind: GrantDynamic, predicate: pred}
}

// Kind reports which variant the grant holds
func (g Grant) Kind() GrantKind {
	return g.kind
}

// hasContext reports whether data is a usable context record. A typed nil
// record counts as no record.
func hasContext(data any) bool {
	switch v := data.(type) {
	case nil:
		return false
	case *applications.Application:
		return v != nil
	case *submissions.Submission:
		return v != nil
	default:
		return true
	}
}

// evaluate resolves the grant. hasData is false when the caller supplied no
// context record, which denies every dynamic grant.
func (g Grant) evaluate(user *auth.User, data any, hasData bool) (bool, DecisionReason) {
	switch g.kind {
	case GrantStatic:
		if g.allow {
			return true, ReasonGranted
		}
		return false, ReasonDeniedByRole
	case GrantDynamic:
		if !hasData {
			return false, ReasonMissingContext
		}
		if g.predicate == nil || !g.predicate(user, data) {
			return false, ReasonPredicateDenied
		}
		return true, ReasonGranted
	default:
		return false, ReasonDeniedByRole
	}
}

// IsApplicant allows the user who filed the submission request.
func IsApplicant(user *auth.User, data any) bool {
	app, ok := data.(*applications.Application)
	if !ok || app == nil || user == nil {
		return false
	}
	return app.IsOwnedBy(user.ID)
}

// InSubmissionDataCommons allows users assigned to the submission's data commons.
func InSubmissionDataCommons(user *auth.User, data any) bool {
	sub, ok := data.(*submissions.Submission)
	if !ok || sub == nil {
		return false
	}
	return user.InDataCommons(sub.DataCommons)
}

// IsSubmitterOrEditor allows the submitter and collaborators with edit rights.
func IsSubmitterOrEditor(user *auth.User, data any) bool {
	sub, ok := data.(*submissions.Submission)
	if !ok || sub == nil || user == nil {
		return false
	}
	return sub.IsSubmitter(user.ID) || sub.CanCollaboratorEdit(user.ID)
}
