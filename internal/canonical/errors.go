package canonical

import "errors"

var (
	// ErrUnresolved marks a voter whose durable identity could not be found.
	ErrUnresolved = errors.New("legislator identity unresolved")
	// ErrDeleted marks a biography the directory has withdrawn.
	ErrDeleted = errors.New("biography marked deleted")
)
