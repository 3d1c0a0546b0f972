package domain

import "fmt"

// StreamState is the lifecycle of one live channel subscription.
//
//	unsubscribed -> connecting -> open -> closed-clean
//	connecting|open -> closed-error
//
// Both closed states are terminal.
type StreamState uint8

const (
	StreamUnsubscribed StreamState = iota
	StreamConnecting
	StreamOpen
	StreamClosedClean
	StreamClosedError
)

func (s StreamState) String() string {
	switch s {
	case StreamUnsubscribed:
		return "unsubscribed"
	case StreamConnecting:
		return "connecting"
	case StreamOpen:
		return "open"
	case StreamClosedClean:
		return "closed-clean"
	case StreamClosedError:
		return "closed-error"
	default:
		return fmt.Sprintf("StreamState(%d)", s)
	}
}

// Terminal reports whether no further transitions are possible.
func (s StreamState) Terminal() bool {
	return s == StreamClosedClean || s == StreamClosedError
}

// Live reports whether the indicator should show the stream as connected.
func (s StreamState) Live() bool {
	return s == StreamOpen
}
