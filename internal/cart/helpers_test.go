package cart

import "time"

const (
	timeout = time.Second
	never   = 50 * time.Millisecond
	tick    = 5 * time.Millisecond
)
