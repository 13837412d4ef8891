package node

import "errors"

var (
	// ErrUnknownSession is returned when an operation names an address with
	// no tracked session.
	ErrUnknownSession = errors.New("node: unknown session")
	// ErrUnexpectedTransition is returned when an input arrives for a
	// session in a state that does not expect it.
	ErrUnexpectedTransition = errors.New("node: unexpected session transition")
	// ErrMagicMismatch is returned when a peer's Initialize carries a
	// network magic that does not match ours.
	ErrMagicMismatch = errors.New("node: network magic mismatch")
	// ErrShortFrame is returned by DecodeFrame when fewer bytes are present
	// than the fixed envelope header requires.
	ErrShortFrame = errors.New("node: frame shorter than envelope header")
	// ErrIncompleteFrame is returned by DecodeFrame when the declared
	// payload length exceeds the bytes available.
	ErrIncompleteFrame = errors.New("node: incomplete frame payload")
	// ErrUnknownMessageTag is returned by DecodeMessage for an unrecognized
	// tag value.
	ErrUnknownMessageTag = errors.New("node: unknown message tag")
)
