package orders

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDelivered Status = "DELIVERED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusAccepted: true},
	StatusAccepted:  {StatusDelivered: true},
	StatusDelivered: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Rank is the position of s along the lifecycle, starting at 1. Unknown
// statuses rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusAccepted:
		return 2
	case StatusDelivered:
		return 3
	}
	return 0
}

// ParseStatus accepts "accepted", " Delivered " and the like.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
	return st, nil
}

// statusOrPending is used when rebuilding orders from storage.
func statusOrPending(s string) Status {
	if _, ok := validNext[Status(s)]; ok {
		return Status(s)
	}
	return StatusPending
}
