package redisx

import "time"

const (
	// Purchase idempotency fast-path: idem:purchase:{idempotency_key} -> cached response body.
	KeyIdemPurchase = "idem:purchase:%s"

	// Order cache: order:{order_id} -> serialized order JSON.
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
