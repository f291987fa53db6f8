package types

// ReminderState is the locally cached answer to "is a reminder set for this
// event". A key that was never touched reports ReminderUnset; creation marks
// it ReminderActive; cancellation marks it ReminderCancelled rather than
// removing the entry, so a cancelled event stays distinguishable from one
// the cache has never seen.
type ReminderState string

const (
	ReminderUnset     ReminderState = "unset"
	ReminderActive    ReminderState = "active"
	ReminderCancelled ReminderState = "cancelled"
)

// IsSet reports whether a reminder is currently scheduled. Both unset and
// cancelled entries answer false.
func (s ReminderState) IsSet() bool {
	return s == ReminderActive
}
