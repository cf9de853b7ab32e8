package octopus

import (
	"context"
	"iter"
	"net/http"
	"time"

	"energystats/pkg/apiclient"
	errs "energystats/pkg/errors"
	"energystats/pkg/logger"
	"energystats/pkg/ratelimit"
	"energystats/pkg/retry"
)

// Options configures a Client
type Options struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Retry     *retry.Config
	Transport http.RoundTripper
	Logger    logger.Logger
	// Now overrides the clock used for an open-ended query
	Now func() time.Time
}

// Client reads accounts and consumption from the Octopus Energy API
type Client struct {
	api     *apiclient.Client
	baseURL string
	logger  logger.Logger
	now     func() time.Time
}

// NewClient creates a client authenticating with the API key as the basic
// auth username and an empty password
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log = log.WithField("vendor", "octopus")
	return &Client{
		api: apiclient.New(apiclient.Options{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			Authorize: apiclient.BasicAuth(opts.APIKey, ""),
			Limiter:   opts.Limiter,
			Retry:     opts.Retry,
			Logger:    log,
		}),
		baseURL: baseURL,
		logger:  log,
		now:     now,
	}
}

// GetAccount fetches an account with its properties and meter points
func (c *Client) GetAccount(ctx context.Context, accountNumber string) (*Account, error) {
	c.logger.DebugWithFields("fetching account", map[string]interface{}{
		"account_number": accountNumber,
	})

	var account Account
	if err := c.api.GetJSON(ctx, AccountURL(c.baseURL, accountNumber), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DefaultMeter returns the last meter of the last meter point of the last
// property on the account
func (c *Client) DefaultMeter(ctx context.Context, accountNumber string) (Meter, error) {
	account, err := c.GetAccount(ctx, accountNumber)
	if err != nil {
		return Meter{}, err
	}

	if len(account.Properties) == 0 {
		return Meter{}, errs.New(errs.ErrorTypeNotFound, "account %s has no properties", accountNumber)
	}
	property := account.Properties[len(account.Properties)-1]
	if len(property.ElectricityMeterPoints) == 0 {
		return Meter{}, errs.New(errs.ErrorTypeNotFound, "property %d has no electricity meter points", property.ID)
	}
	point := property.ElectricityMeterPoints[len(property.ElectricityMeterPoints)-1]
	if len(point.Meters) == 0 {
		return Meter{}, errs.New(errs.ErrorTypeNotFound, "meter point %s has no meters", point.MPAN)
	}

	meter := Meter{MPAN: point.MPAN, SerialNumber: point.Meters[len(point.Meters)-1].SerialNumber}
	c.logger.InfoWithFields("resolved default meter", map[string]interface{}{
		"mpan":          meter.MPAN,
		"serial_number": meter.SerialNumber,
	})
	return meter, nil
}

// Consumption returns the readings selected by q, oldest first. Pages are
// fetched lazily as the sequence is consumed; iteration stops at the first
// error, which is yielded with a zero record.
func (c *Client) Consumption(ctx context.Context, q ConsumptionQuery) iter.Seq2[ConsumptionRecord, error] {
	return func(yield func(ConsumptionRecord, error) bool) {
		meter, err := c.resolveMeter(ctx, q)
		if err != nil {
			yield(ConsumptionRecord{}, err)
			return
		}

		end := q.End
		if end.IsZero() {
			end = c.now()
		}

		next := ConsumptionURL(c.baseURL, meter.MPAN, meter.SerialNumber, q.Start, end)
		for pageNum := 1; next != ""; pageNum++ {
			var page consumptionPage
			if err := c.api.GetJSON(ctx, next, &page); err != nil {
				yield(ConsumptionRecord{}, err)
				return
			}
			c.logger.DebugWithFields("fetched consumption page", map[string]interface{}{
				"page":    pageNum,
				"records": len(page.Results),
				"count":   page.Count,
			})

			for _, record := range page.Results {
				if !yield(record, nil) {
					return
				}
			}

			next = ""
			if page.Next != nil {
				next = *page.Next
			}
		}
	}
}

func (c *Client) resolveMeter(ctx context.Context, q ConsumptionQuery) (Meter, error) {
	if q.MPAN != "" && q.SerialNumber != "" {
		return Meter{MPAN: q.MPAN, SerialNumber: q.SerialNumber}, nil
	}
	if q.AccountNumber != "" {
		return c.DefaultMeter(ctx, q.AccountNumber)
	}
	return Meter{}, errs.New(errs.ErrorTypeInvalidArgument, "mpan and serial number are required")
}
