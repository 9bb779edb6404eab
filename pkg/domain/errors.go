package domain

import "go.trai.ch/zerr"

var (
	// ErrPointerElement is returned when a port is requested for a pointer-shaped element type.
	// Projectors treat it as a skipped member rather than a failure.
	ErrPointerElement = zerr.New("pointer-shaped element type")

	// ErrChannelAllocation is returned when the host cannot create a typed channel.
	// It is always fatal to the caller that requested the port.
	ErrChannelAllocation = zerr.New("channel allocation failed")

	// ErrChannelDisposed is returned when a disposed channel is written.
	ErrChannelDisposed = zerr.New("channel disposed")

	// ErrPortNotFound is returned when a named port does not exist in its group.
	ErrPortNotFound = zerr.New("port not found")

	// ErrTypeMismatch is returned when a value does not fit the element type of its channel or member.
	ErrTypeMismatch = zerr.New("type mismatch")

	// ErrUnboundType is returned when a rebinding group is used before a type was bound.
	ErrUnboundType = zerr.New("type not bound")

	// ErrTypeNotResolved is returned when a type name matches neither an alias nor a registered type.
	ErrTypeNotResolved = zerr.New("type not resolved")

	// ErrNotConstructible is returned when a join target type has no usable default instance.
	ErrNotConstructible = zerr.New("type not constructible")
)
