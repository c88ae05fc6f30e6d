package cache

import "fmt"

type Prefix string

const (
	// DispatchLock scopes the per-campaign dispatcher lease.
	DispatchLock Prefix = "dispatch_lock"
	// SentReceipt stores the confirmed send instant per message.
	SentReceipt Prefix = "sent_receipt"
)

func (p Prefix) Key(id string) string {
	return fmt.Sprintf("%s:%s", p, id)
}
