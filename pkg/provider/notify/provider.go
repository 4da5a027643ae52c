// Package notify defines the Provider interface for outbound text
// notification backends.
//
// A notify provider delivers a short text message to a phone number over an
// external messaging gateway (e.g., WhatsApp via CallMeBot). Delivery is best
// effort: the relay fires notifications in the background and a failure never
// affects the chat response.
package notify

import "context"

// Provider is the abstraction over any outbound notification backend.
type Provider interface {
	// Send delivers text to the given phone number. phone is expected in
	// full international form without a leading plus (e.g., "5511988887777").
	//
	// Returns an error if the gateway cannot be reached, rejects the
	// request, or ctx expires first.
	Send(ctx context.Context, phone, text string) error
}
