package blp

import "errors"

// Decode failures. All are terminal; Decode never returns a partial plane.
var (
	ErrBadSignature          = errors.New("blp: bad signature")
	ErrTruncatedInput        = errors.New("blp: truncated input")
	ErrEmptyMipLevel         = errors.New("blp: empty mip level")
	ErrUnsupportedAlphaDepth = errors.New("blp: unsupported alpha depth")
	ErrUnsupportedDxtVariant = errors.New("blp: unsupported dxt variant")
	ErrUnknownFormat         = errors.New("blp: unknown format")
)
