package ports

import "time"

// Clock abstracts wall-clock reads so lifecycle transitions are testable.
type Clock interface {
	Now() time.Time
}
