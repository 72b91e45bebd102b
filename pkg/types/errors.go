package types

import "errors"

// ErrInvalidRequest marks input the caller must fix; retrying will not help.
var ErrInvalidRequest = errors.New("invalid request")
