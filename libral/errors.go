package libral

import "errors"

// ErrResourceCreation is wrapped by every error caused by a failed GPU object allocation.
var ErrResourceCreation = errors.New("resource creation failed")

// ErrUnsupported is wrapped by errors for configurations that have no implementation.
var ErrUnsupported = errors.New("not yet supported")
