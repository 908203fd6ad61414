package admission

import "github.com/google/uuid"

// Entry is one protected-call admission, returned by Enter and consumed by
// Exit. It carries everything the exit path needs to book completion
// statistics and drive any bound circuit breakers.
type Entry struct {
	ID uuid.UUID

	Context  string
	Resource string
	Origin   string
	Count    int64

	CreateMs int64

	// occupiedPass is set when this entry was admitted via a
	// priority-wait occupancy grant; its pass was already booked via
	// add_occupied_pass, so Enter does not add it to the pass counters
	// again.
	occupiedPass bool

	// err is the error the protected call ended with, if any: an internal
	// non-block error (spec.md §7 error kind 4), or a typed block error
	// raised by a downstream entry. This entry's own block errors are
	// returned directly from Enter and never reach this field.
	err error
}

// SetError records the error the protected call ended with. On Exit a
// non-block error is booked as an exception; a typed block error (see
// IsBlocked) is treated as a downstream block instead — it is not booked
// as an exception and sends a HALF_OPEN breaker back to OPEN.
func (e *Entry) SetError(err error) { e.err = err }

// Error returns whatever error was recorded on the entry, if any.
func (e *Entry) Error() error { return e.err }

func newEntry(context, resource, origin string, count, nowMs int64) *Entry {
	return &Entry{
		ID:       uuid.New(),
		Context:  context,
		Resource: resource,
		Origin:   origin,
		Count:    count,
		CreateMs: nowMs,
	}
}
