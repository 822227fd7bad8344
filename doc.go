// Package central is the Go client SDK for the GeekForce Central
// backend: a hosted document store with live queries plus an identity
// service.
//
// The SDK is built around one rule: a write never blocks the caller,
// and a write never touches local read state. Mutations are dispatched
// fire-and-forget; failures surface through a client-wide write-error
// observer; the only way new data becomes visible is a live
// subscription pushing a fresh snapshot. Reads and writes converge
// through the backend, not through each other.
//
//	client, err := central.Connect(ctx, central.Config{URL: "ws://central.geekforce.dev"})
//	if err != nil { ... }
//	defer client.Close(ctx)
//
//	client.OnWriteError(func(e *status.Error) { toast(e.Message) })
//
//	unsubscribe, err := client.Subscribe(central.Query{Collection: "events"}, func(s central.Snapshot) {
//		render(s)
//	})
//	defer unsubscribe()
//
//	// Returns before the round trip; the subscription above delivers
//	// the event once the backend applies it.
//	ref, err := client.EnqueueCreate(central.Collection("events"), central.Fields{
//		"title":       "Briefing",
//		"attendeeIds": []string{"u1"},
//	})
package central
