package wire

import "errors"

// Domain errors for the wire package. Check with errors.Is().
var (
	// ErrDecode is returned when an envelope cannot be parsed.
	ErrDecode = errors.New("wire: malformed envelope")

	// ErrUnknownType is returned when the payload type is not recognised.
	ErrUnknownType = errors.New("wire: unknown payload type")

	// ErrUnknownAction is returned when an EVENT carries no recognisable action.
	ErrUnknownAction = errors.New("wire: unknown sensor action")

	// ErrEncode is returned when a message cannot be encoded, typically
	// because its Body is nil.
	ErrEncode = errors.New("wire: message not encodable")
)
