// Package entitlements decides whether an account may create a job posting.
package entitlements

import (
	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
)

// Reason explains a denied Decision.
type Reason string

const (
	ReasonNotAuthenticated       Reason = "NotAuthenticated"
	ReasonWrongRole              Reason = "WrongRole"
	ReasonNoCompanyProfile       Reason = "NoCompanyProfile"
	ReasonNoCreditOrSubscription Reason = "NoCreditOrSubscription"
)

var reasonMessages = map[Reason]string{
	ReasonNotAuthenticated:       "You must be logged in to post jobs.",
	ReasonWrongRole:              "Only company accounts may post jobs.",
	ReasonNoCompanyProfile:       "Create your company profile first.",
	ReasonNoCreditOrSubscription: "You must buy a job posting credit or subscribe for unlimited posting.",
}

// Source names what an allowed Decision is backed by.
type Source string

const (
	SourceSubscription Source = "subscription"
	SourceCredit       Source = "credit"
)

// Decision is the outcome of CanPostJob.
type Decision struct {
	Allowed bool
	Reason  Reason
	Source  Source
}

// ConsumesCredit reports whether the caller must consume the account's
// one-time credit once the posting has actually been created.
func (d Decision) ConsumesCredit() bool {
	return d.Allowed && d.Source == SourceCredit
}

// Message is the user-facing text for a denial.
func (d Decision) Message() string {
	return reasonMessages[d.Reason]
}

// Err converts a denial to an API error. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	kind := apperror.KindAuthorizationDenied
	if d.Reason == ReasonNotAuthenticated {
		kind = apperror.KindAuthenticationRequired
	}
	return apperror.New(kind, string(d.Reason), d.Message())
}

func deny(r Reason) Decision { return Decision{Reason: r} }

// CanPostJob decides whether account may create a job posting. account is nil
// for anonymous callers and company is nil when the account has no profile.
// The checks run in a fixed order and the first failure wins. It never
// mutates its arguments.
func CanPostJob(account *models.User, company *models.Company, hasActiveSubscription bool) Decision {
	if account == nil || account.ID == 0 {
		return deny(ReasonNotAuthenticated)
	}
	if account.Role != models.ROLE_COMPANY {
		return deny(ReasonWrongRole)
	}
	if company == nil || company.OwnerID != account.ID {
		return deny(ReasonNoCompanyProfile)
	}
	if hasActiveSubscription {
		return Decision{Allowed: true, Source: SourceSubscription}
	}
	if account.HasActiveJobPostingPlan {
		return Decision{Allowed: true, Source: SourceCredit}
	}
	return deny(ReasonNoCreditOrSubscription)
}
