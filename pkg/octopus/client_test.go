package octopus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errs "energystats/pkg/errors"
	"energystats/pkg/logger"
	"energystats/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountJSON = `{
  "number": "A-1234",
  "properties": [
    {
      "id": 1,
      "moved_in_at": "2019-05-01T00:00:00+01:00",
      "moved_out_at": "2022-01-31T00:00:00Z",
      "address_line_1": "1 Old Road",
      "town": "Leeds",
      "postcode": "LS1 1AA",
      "electricity_meter_points": [
        {"mpan": "1000000000001", "profile_class": 1, "consumption_standard": 2900,
         "meters": [{"serial_number": "OLD1", "registers": []}], "agreements": []}
      ]
    },
    {
      "id": 2,
      "moved_in_at": "2022-02-01T00:00:00Z",
      "moved_out_at": null,
      "address_line_1": "2 New Street",
      "town": "York",
      "postcode": "YO1 1AA",
      "electricity_meter_points": [
        {"mpan": "2000000000001", "profile_class": 1, "consumption_standard": 3100,
         "meters": [{"serial_number": "NEW0"}], "agreements": []},
        {"mpan": "2000000000002", "profile_class": 1, "consumption_standard": 3100,
         "meters": [
           {"serial_number": "NEW1", "registers": [{"identifier": "1", "rate": "STANDARD", "is_settlement_register": true}]},
           {"serial_number": "NEW2", "registers": []}
         ],
         "agreements": [{"tariff_code": "E-1R-AGILE-23-12-06-C", "valid_from": "2023-12-06T00:00:00Z", "valid_to": null}]}
      ]
    }
  ]
}`

func newTestClient(server *httptest.Server, log logger.Logger) *Client {
	return NewClient(Options{
		APIKey:  "sk_live_test",
		BaseURL: server.URL + "/v1/",
		Logger:  log,
		Retry:   &retry.Config{MaxAttempts: 1},
		Now: func() time.Time {
			return time.Date(2023, 12, 3, 12, 0, 0, 0, time.UTC)
		},
	})
}

func TestGetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/A-1234/", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "sk_live_test", user)
		assert.Empty(t, pass)
		_, _ = w.Write([]byte(accountJSON))
	}))
	defer server.Close()

	account, err := newTestClient(server, logger.NewTestLogger()).GetAccount(context.Background(), "A-1234")
	require.NoError(t, err)

	assert.Equal(t, "A-1234", account.Number)
	require.Len(t, account.Properties, 2)
	assert.NotNil(t, account.Properties[0].MovedOutAt)
	assert.Nil(t, account.Properties[1].MovedOutAt)
	assert.Equal(t, "York", account.Properties[1].Town)

	point := account.Properties[1].ElectricityMeterPoints[1]
	assert.Equal(t, 3100, point.ConsumptionStandard)
	require.Len(t, point.Agreements, 1)
	assert.Nil(t, point.Agreements[0].ValidTo)
	assert.True(t, point.Meters[0].Registers[0].IsSettlementRegister)
}

func TestDefaultMeter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(accountJSON))
	}))
	defer server.Close()

	meter, err := newTestClient(server, logger.NewTestLogger()).DefaultMeter(context.Background(), "A-1234")
	require.NoError(t, err)
	assert.Equal(t, Meter{MPAN: "2000000000002", SerialNumber: "NEW2"}, meter)
}

func TestDefaultMeterEmptyAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"number": "A-1234", "properties": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, logger.NewTestLogger()).DefaultMeter(context.Background(), "A-1234")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestConsumptionFollowsPagination(t *testing.T) {
	var server *httptest.Server
	var requested []string
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RequestURI())
		assert.Equal(t, "/v1/electricity-meter-points/M1/meters/S1/consumption/", r.URL.Path)

		switch r.URL.Query().Get("page") {
		case "":
			q := r.URL.Query()
			assert.Equal(t, "2023-12-01T00:00:00Z", q.Get("period_from"))
			assert.Equal(t, "2023-12-03T12:00:00Z", q.Get("period_to"))
			assert.Equal(t, "period", q.Get("order_by"))
			assert.Equal(t, "200", q.Get("page_size"))
			fmt.Fprintf(w, `{"count": 3, "next": "%s%s&page=2", "previous": null, "results": [
				{"consumption": 0.25, "interval_start": "2023-12-01T00:00:00Z", "interval_end": "2023-12-01T00:30:00Z"},
				{"consumption": 0.5, "interval_start": "2023-12-01T00:30:00Z", "interval_end": "2023-12-01T01:00:00Z"}
			]}`, server.URL, r.URL.RequestURI())
		case "2":
			_, _ = w.Write([]byte(`{"count": 3, "next": null, "previous": "x", "results": [
				{"consumption": 0.75, "interval_start": "2023-12-01T01:00:00Z", "interval_end": "2023-12-01T01:30:00Z"}
			]}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	client := newTestClient(server, logger.NewTestLogger())
	var got []float64
	for record, err := range client.Consumption(context.Background(), ConsumptionQuery{
		MPAN:         "M1",
		SerialNumber: "S1",
		Start:        time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}) {
		require.NoError(t, err)
		got = append(got, record.Consumption)
	}

	assert.Equal(t, []float64{0.25, 0.5, 0.75}, got)
	assert.Len(t, requested, 2)
}

func TestConsumptionStopsWhenConsumerBreaks(t *testing.T) {
	var server *httptest.Server
	calls := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"count": 4, "next": "%s/v1/next", "results": [
			{"consumption": 1, "interval_start": "2023-12-01T00:00:00Z", "interval_end": "2023-12-01T00:30:00Z"},
			{"consumption": 2, "interval_start": "2023-12-01T00:30:00Z", "interval_end": "2023-12-01T01:00:00Z"}
		]}`, server.URL)
	}))
	defer server.Close()

	client := newTestClient(server, logger.NewTestLogger())
	for record, err := range client.Consumption(context.Background(), ConsumptionQuery{MPAN: "M1", SerialNumber: "S1"}) {
		require.NoError(t, err)
		assert.Equal(t, 1.0, record.Consumption)
		break
	}
	assert.Equal(t, 1, calls)
}

func TestConsumptionResolvesMeterFromAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/accounts/A-1234/":
			_, _ = w.Write([]byte(accountJSON))
		case "/v1/electricity-meter-points/2000000000002/meters/NEW2/consumption/":
			assert.Empty(t, r.URL.Query().Get("period_from"), "zero start omits period_from")
			_, _ = w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server, logger.NewTestLogger())
	count := 0
	for _, err := range client.Consumption(context.Background(), ConsumptionQuery{AccountNumber: "A-1234"}) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestConsumptionRequiresMeter(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(server, logger.NewTestLogger())
	var errsSeen []error
	for _, err := range client.Consumption(context.Background(), ConsumptionQuery{MPAN: "M1"}) {
		errsSeen = append(errsSeen, err)
	}
	require.Len(t, errsSeen, 1)
	assert.True(t, errs.IsType(errsSeen[0], errs.ErrorTypeInvalidArgument))
}

func TestConsumptionYieldsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server, logger.NewTestLogger())
	var lastErr error
	for _, err := range client.Consumption(context.Background(), ConsumptionQuery{MPAN: "M1", SerialNumber: "S1"}) {
		lastErr = err
	}
	require.Error(t, lastErr)
	assert.True(t, errs.IsType(lastErr, errs.ErrorTypeAuth))
}

func TestFormatPeriod(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	assert.Equal(t, "2024-07-01T23:00:00Z", FormatPeriod(time.Date(2024, 7, 2, 0, 0, 0, 0, london)))
	assert.Equal(t, "2024-01-02T00:00:00Z", FormatPeriod(time.Date(2024, 1, 2, 0, 0, 0, 999, london)))
}

func TestConsumptionURL(t *testing.T) {
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	got := ConsumptionURL(BaseURL, "M1", "S/1", from, to)
	assert.Equal(t, "https://api.octopus.energy/v1/electricity-meter-points/M1/meters/S%2F1/consumption/"+
		"?order_by=period&page_size=200&period_from=2024-01-02T00%3A00%3A00Z&period_to=2024-01-03T00%3A00%3A00Z", got)
}
