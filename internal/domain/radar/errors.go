package radar

import "errors"

var (
	ErrNoLocation     = errors.New("no location reported yet")
	ErrRadiusTooLarge = errors.New("radius exceeds the maximum")
)
