package wifi

import "errors"

var (
	// ErrInterfaceNotFound is returned by Initialize when the managed
	// interface has no readable hardware address.
	ErrInterfaceNotFound = errors.New("wifi interface not found")

	// ErrProfileList is returned when saved profiles cannot be enumerated.
	ErrProfileList = errors.New("failed to list connections")

	// ErrPowerActionPending is returned when a reboot is already scheduled.
	ErrPowerActionPending = errors.New("power action already in progress")
)
