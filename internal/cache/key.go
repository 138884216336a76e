package cache

import (
	"fmt"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// Key identifies one cacheable backend request: the backend, the
// endpoint kind, the subject (username or art URL) and, for top-N
// endpoints, the period.
type Key struct {
	Backend  scrobble.BackendKind
	Endpoint scrobble.EndpointKind
	Subject  string
	Period   scrobble.Period
}

// String returns the canonical flat form used for storage and
// single-flight joining.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Backend, k.Endpoint, k.Subject, k.Period)
}
