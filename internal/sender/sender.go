// Package sender exposes a minimal interface for delivering campaign
// messages through the external send endpoint.
package sender

import "context"

// Client is the contract for a send-endpoint implementation.
type Client interface {
	// Send delivers one message to the given recipient. A nil error means
	// the endpoint answered 2xx with a success body; anything else is a
	// failure to be recorded on the message row.
	Send(ctx context.Context, name, phone, body string) error

	// Health checks whether the send endpoint is reachable and usable.
	Health(ctx context.Context) error
}
