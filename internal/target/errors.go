package target

import "fmt"

// UnparsableTargetError reports a string that is neither a recognized
// short form (bare IP, socket address, CIDR, localhost) nor a URI
// with a recognized scheme.
type UnparsableTargetError struct {
	Raw string
}

func (e *UnparsableTargetError) Error() string {
	return fmt.Sprintf("unparsable target: %q", e.Raw)
}
