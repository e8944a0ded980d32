package pipeline

import "time"

// DefaultGracePeriod is how long a cancelled command gets between the
// interrupt and the forced kill.
const DefaultGracePeriod = 5 * time.Second

const errProcessNotStarted = "process not started"
