package myenergi

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"energystats/internal/fetcher"
	"energystats/pkg/apiclient"
	errs "energystats/pkg/errors"
	"energystats/pkg/logger"
	"energystats/pkg/ratelimit"
	"energystats/pkg/retry"

	"github.com/icholy/digest"
)

const (
	// DirectorURL is the entry point that assigns a hub to its API server
	DirectorURL = "https://director.myenergi.net/"

	// ASNHeader carries the hostname of the server serving the hub
	ASNHeader = "x_myenergi-asn"

	// MaxASNRedirects bounds the host discovery loop
	MaxASNRedirects = 3

	minutesPerDay = 1440
)

// Options configures a Client
type Options struct {
	HubSerialNumber string
	APIKey          string
	DirectorURL     string
	Timeout         time.Duration
	// ConcurrentDays is the number of days fetched in parallel
	ConcurrentDays int
	Limiter        ratelimit.Limiter
	Retry          *retry.Config
	Transport      http.RoundTripper
	Logger         logger.Logger
}

// Client reads per-minute Zappi usage through the myenergi hub API
type Client struct {
	api            *apiclient.Client
	serial         string
	directorURL    string
	concurrentDays int
	logger         logger.Logger

	// base is the discovered API server, set by Connect
	base *url.URL
}

// NewClient creates a client using digest auth with the hub serial number
// as username and the API key as password
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	director := opts.DirectorURL
	if director == "" {
		director = DirectorURL
	}
	concurrentDays := opts.ConcurrentDays
	if concurrentDays < 1 {
		concurrentDays = 1
	}

	log = log.WithField("vendor", "myenergi")
	return &Client{
		api: apiclient.New(apiclient.Options{
			Timeout: opts.Timeout,
			Transport: &digest.Transport{
				Username:  opts.HubSerialNumber,
				Password:  opts.APIKey,
				Transport: opts.Transport,
			},
			Limiter: opts.Limiter,
			Retry:   opts.Retry,
			Logger:  log,
		}),
		serial:         opts.HubSerialNumber,
		directorURL:    director,
		concurrentDays: concurrentDays,
		logger:         log,
	}
}

// Connect discovers the API server for the hub. The director answers with
// the assigned host in the ASN header; the request is repeated against that
// host until it names itself.
func (c *Client) Connect(ctx context.Context) error {
	current, err := url.Parse(c.directorURL)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeInvalidArgument, err, "invalid director URL")
	}

	for attempt := 1; attempt <= MaxASNRedirects; attempt++ {
		resp, err := c.api.Get(ctx, current.String())
		if err != nil {
			return fmt.Errorf("failed to contact %s: %w", current.Host, err)
		}

		asn := resp.Header.Get(ASNHeader)
		if asn == "" {
			return errs.New(errs.ErrorTypeParsing, "header %s not present", ASNHeader)
		}

		host := current.Hostname()
		if host == "" {
			return errs.New(errs.ErrorTypeInvalidArgument, "unable to parse host of %s", current)
		}
		if host == asn {
			c.base = &url.URL{Scheme: current.Scheme, Host: current.Host, Path: "/"}
			c.logger.InfoWithFields("connected to myenergi server", map[string]interface{}{
				"host":     current.Host,
				"attempts": attempt,
			})
			return nil
		}

		c.logger.DebugWithFields("redirected to assigned server", map[string]interface{}{
			"from": host,
			"to":   asn,
		})
		next := *current
		next.Host = strings.Replace(current.Host, host, asn, 1)
		current = &next
	}

	return errs.New(errs.ErrorTypeNetwork, "unable to determine API host")
}

// Connected reports whether Connect has succeeded
func (c *Client) Connected() bool {
	return c.base != nil
}

// ConnectedHost returns the discovered API server host
func (c *Client) ConnectedHost() (string, error) {
	if c.base == nil {
		return "", errs.New(errs.ErrorTypeInvalidArgument, "not connected")
	}
	return c.base.Host, nil
}

// UsageByMinute returns the minute records with start <= IntervalStart < end,
// oldest first. One request is made per UTC day in the range.
func (c *Client) UsageByMinute(ctx context.Context, start, end time.Time) iter.Seq2[UsageRecord, error] {
	return func(yield func(UsageRecord, error) bool) {
		if c.base == nil {
			yield(UsageRecord{}, errs.New(errs.ErrorTypeInvalidArgument, "not connected"))
			return
		}

		start, end := start.UTC(), end.UTC()
		days := daysBetween(start, end)
		c.logger.DebugWithFields("fetching zappi usage", map[string]interface{}{
			"start": start,
			"end":   end,
			"days":  len(days),
		})

		for records, err := range fetcher.Ordered(ctx, c.concurrentDays, days, c.fetchDay, c.logger) {
			if err != nil {
				yield(UsageRecord{}, err)
				return
			}
			for _, record := range records {
				if record.IntervalStart.Before(start) || !record.IntervalStart.Before(end) {
					continue
				}
				if !yield(record, nil) {
					return
				}
			}
		}
	}
}

func (c *Client) fetchDay(ctx context.Context, day time.Time) ([]UsageRecord, error) {
	var payload map[string][]rawUsage
	if err := c.api.GetJSON(ctx, c.DayURL(day), &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch usage for %s: %w", day.Format(time.DateOnly), err)
	}

	key := "U" + c.serial
	raw, ok := payload[key]
	if !ok {
		return nil, errs.New(errs.ErrorTypeParsing, "response for %s has no %s entry", day.Format(time.DateOnly), key)
	}

	records := make([]UsageRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, r.record())
	}
	return records, nil
}

// DayURL returns the per-minute history URL for the UTC date of day
func (c *Client) DayURL(day time.Time) string {
	path := fmt.Sprintf("cgi-jday-Z%s-%d-%d-%d-0-0-%d", c.serial, day.Year(), int(day.Month()), day.Day(), minutesPerDay)
	u := *c.base
	u.Path = "/" + path
	return u.String()
}

// daysBetween returns the UTC midnights of the days overlapping [start, end)
func daysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC); day.Before(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
