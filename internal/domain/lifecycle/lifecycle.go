package lifecycle

import "time"

// DefaultTimeout bounds fx start and stop hooks such as pinging a store or draining the HTTP server.
const DefaultTimeout = 10 * time.Second
