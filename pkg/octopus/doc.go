// Package octopus reads half-hourly electricity consumption from the Octopus
// Energy REST API.
//
//	client := octopus.NewClient(octopus.Options{APIKey: key})
//	for record, err := range client.Consumption(ctx, octopus.ConsumptionQuery{
//		AccountNumber: "A-1234ABCD",
//		Start:         since,
//	}) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(record.IntervalStart, record.Consumption)
//	}
//
// When only an account number is known the meter is taken from the account:
// the last meter of the last meter point of the most recent property.
package octopus
