// Package myenergi reads per-minute Zappi EV charger usage from the myenergi
// hub API.
//
// Hubs are served from one of several API servers. Connect asks the director
// which one and follows its answer, after which UsageByMinute can be called:
//
//	client := myenergi.NewClient(myenergi.Options{HubSerialNumber: serial, APIKey: key})
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	for record, err := range client.UsageByMinute(ctx, start, end) {
//		...
//	}
//
// Requests are authenticated with HTTP digest auth.
package myenergi
