package checkout

import (
	"github.com/shopspring/decimal"
)

// Kind classifies the result of a purchase submission attempt. Exactly four
// kinds exist; transport-level failures (DNS, timeout) fold into KindFailure
// rather than growing the taxonomy.
type Kind uint8

const (
	// KindSuccess means the backend accepted the purchase and created an order.
	KindSuccess Kind = iota + 1
	// KindUnauthenticated means no usable session credential was available,
	// either locally absent or rejected by the backend with 401.
	KindUnauthenticated
	// KindRateLimited means the backend refused the purchase with 429. The
	// limit is business-meaningful (one purchase per customer per minute)
	// and must never be retried automatically.
	KindRateLimited
	// KindFailure covers every other non-success condition.
	KindFailure
)

// String returns the kind's wire/display name.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// DefaultRateLimitMessage is shown when the backend rate-limits a purchase
// without supplying its own message. It must stay distinct from generic
// failure copy so the user knows waiting, not retrying, is the fix.
const DefaultRateLimitMessage = "Only one purchase per minute is allowed. Please wait a moment before trying again."

// genericFailureMessage is used when the backend gives no usable message.
const genericFailureMessage = "The purchase could not be completed. Please try again."

// Outcome is the single-shot classification of one submission attempt. It is
// constructed once per attempt, never persisted, and consumed immediately by
// the caller to drive user-visible state.
type Outcome struct {
	Kind Kind

	// Success fields.
	OrderID     string
	Total       decimal.Decimal
	OrderStatus string

	// RetryAfter is the server's wait hint in seconds for KindRateLimited.
	// Zero means the server gave no hint.
	RetryAfter int

	// Message is the user-facing text for KindRateLimited and KindFailure.
	Message string
}

// Succeeded reports whether the purchase went through. Only on success may
// the caller clear the cart; every other outcome leaves it intact so the
// user can retry without re-entering items.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindSuccess
}

func success(orderID string, total decimal.Decimal, status string) Outcome {
	return Outcome{
		Kind:        KindSuccess,
		OrderID:     orderID,
		Total:       total,
		OrderStatus: status,
	}
}

func unauthenticated() Outcome {
	return Outcome{Kind: KindUnauthenticated}
}

func rateLimited(retryAfter int, message string) Outcome {
	if message == "" {
		message = DefaultRateLimitMessage
	}
	return Outcome{
		Kind:       KindRateLimited,
		RetryAfter: retryAfter,
		Message:    message,
	}
}

func failure(message string) Outcome {
	if message == "" {
		message = genericFailureMessage
	}
	return Outcome{Kind: KindFailure, Message: message}
}
