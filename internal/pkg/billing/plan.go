package billing

import (
	"strings"

	"github.com/ManuelReschke/JobFox/app/models"
)

// entitlingStatuses grant unlimited posting. past_due is excluded so that a
// failed renewal stops posting until the provider collects payment.
var entitlingStatuses = []string{
	models.BillingStatusActive,
	models.BillingStatusTrialing,
}

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case models.BillingIntervalMonth, models.BillingIntervalYear:
		return i
	default:
		return models.BillingIntervalUnknown
	}
}

func isEntitlingStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, e := range entitlingStatuses {
		if s == e {
			return true
		}
	}
	return false
}

func planForPrice(cfg Config, priceRef string) string {
	if priceRef != "" && priceRef == cfg.UnlimitedPostingPriceID {
		return models.PlanUnlimitedPosting
	}
	return models.PlanUnknown
}
