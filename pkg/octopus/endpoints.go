package octopus

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// BaseURL is the base URL of the Octopus Energy REST API
	BaseURL = "https://api.octopus.energy/v1/"

	// PageSize is the number of consumption records requested per page
	PageSize = 200

	// periodLayout is the only timestamp form the API filters accept reliably
	periodLayout = "2006-01-02T15:04:05Z"
)

// AccountURL constructs the URL for an account lookup
func AccountURL(baseURL, accountNumber string) string {
	return joinURL(baseURL, "accounts", url.PathEscape(accountNumber)) + "/"
}

// ConsumptionURL constructs the URL of the first consumption page. A zero
// from omits period_from so the API returns everything up to to.
func ConsumptionURL(baseURL, mpan, serialNumber string, from, to time.Time) string {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("period_from", FormatPeriod(from))
	}
	params.Set("period_to", FormatPeriod(to))
	params.Set("order_by", "period")
	params.Set("page_size", fmt.Sprint(PageSize))

	endpoint := joinURL(baseURL, "electricity-meter-points", url.PathEscape(mpan),
		"meters", url.PathEscape(serialNumber), "consumption") + "/"
	return endpoint + "?" + params.Encode()
}

// FormatPeriod renders t in UTC at second resolution with a Z suffix.
// The API ignores explicit offsets.
func FormatPeriod(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(periodLayout)
}

func joinURL(baseURL string, segments ...string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segments, "/")
}
