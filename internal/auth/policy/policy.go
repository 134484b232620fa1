// Package policy decides whether a caller may perform an operation on an
// account or card. The rule set is fixed.
package policy

import (
	"github.com/fayad123/bcards-server/internal/auth/token"
	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type Operation string

const (
	RegisterAccount Operation = "register_account"
	Login           Operation = "login"
	ListAccounts    Operation = "list_accounts"
	GetAccount      Operation = "get_account"
	UpdateAccount   Operation = "update_account"
	DeleteAccount   Operation = "delete_account"
	ToggleBusiness  Operation = "toggle_business"
	CreateCard      Operation = "create_card"
	ListCards       Operation = "list_cards"
	GetCard         Operation = "get_card"
	UpdateCard      Operation = "update_card"
	DeleteCard      Operation = "delete_card"
	ToggleLike      Operation = "toggle_like"
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNoCredential Reason = "no_credential"
	ReasonWrongRole    Reason = "wrong_role"
	ReasonNotOwner     Reason = "not_owner"
)

// Resource identifies the stored target. For accounts OwnerID is the
// account's own id; for cards it is the stored user_id.
type Resource struct {
	ID      string
	OwnerID string
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// Err maps a denial to the error kind the API reports.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonNoCredential:
		return commonerrors.ErrMissingToken
	case d.Reason == ReasonNotOwner:
		return commonerrors.ErrForbiddenNotOwner
	default:
		return commonerrors.ErrForbiddenRole
	}
}

type Options struct {
	// CardDeleteRequiresOwner restricts card deletion to the owner or an
	// admin. When false, deletion is public.
	CardDeleteRequiresOwner bool
}

type Policy struct {
	opts Options
}

func New(opts Options) *Policy {
	return &Policy{opts: opts}
}

// Evaluate is pure: it looks only at the claims and the stored resource.
func (p *Policy) Evaluate(claims *token.Claims, op Operation, res *Resource) Decision {
	d := p.evaluate(claims, op, res)
	if !d.Allowed {
		metrics.PolicyDenials.WithLabelValues(string(op), string(d.Reason)).Inc()
	}
	return d
}

func (p *Policy) evaluate(claims *token.Claims, op Operation, res *Resource) Decision {
	switch op {
	case RegisterAccount, Login, ListCards, GetCard:
		return allow
	case DeleteCard:
		if !p.opts.CardDeleteRequiresOwner {
			return allow
		}
	}

	if claims == nil {
		return deny(ReasonNoCredential)
	}

	switch op {
	case ListAccounts:
		return requireAdmin(claims)

	case GetAccount, DeleteAccount:
		// Admin AND self.
		if !claims.IsAdmin {
			return deny(ReasonWrongRole)
		}
		return requireOwner(claims, res)

	case UpdateAccount, ToggleBusiness, UpdateCard, DeleteCard:
		if claims.IsAdmin {
			return allow
		}
		return requireOwner(claims, res)

	case CreateCard:
		if claims.IsBusiness || claims.IsAdmin {
			return allow
		}
		return deny(ReasonWrongRole)

	case ToggleLike:
		return allow
	}

	return deny(ReasonWrongRole)
}

func requireAdmin(claims *token.Claims) Decision {
	if claims.IsAdmin {
		return allow
	}
	return deny(ReasonWrongRole)
}

func requireOwner(claims *token.Claims, res *Resource) Decision {
	if res == nil || res.OwnerID == "" || res.OwnerID != claims.ID {
		return deny(ReasonNotOwner)
	}
	return allow
}
