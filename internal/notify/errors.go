package notify

import (
	"fmt"
	"time"
)

// RateLimitedError signals the transport asked us to back off for a
// specific duration before resending.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// MessageTooLongError signals the transport rejected the payload for
// exceeding its length limit.
type MessageTooLongError struct {
	Limit int
}

func (e *MessageTooLongError) Error() string {
	return fmt.Sprintf("message exceeds transport limit of %d", e.Limit)
}
