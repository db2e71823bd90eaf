package sourceapi

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an empty or invalid capability declaration.
	ErrConfiguration = errors.New("sourceapi: invalid capability declaration")
	// ErrStaleConnection marks a pooled connection found dead; the execution
	// layer retries once after invalidating the pool.
	ErrStaleConnection = errors.New("sourceapi: stale pooled connection")
	// ErrConnectionUnavailable marks a backend store that cannot be reached.
	// The coordinator always propagates it.
	ErrConnectionUnavailable = errors.New("sourceapi: connection unavailable")
)

// Notice is returned by a backend that deliberately produced no answer.
type Notice struct {
	Source  string
	Message string
}

func (n *Notice) Error() string {
	if n.Source == "" {
		return n.Message
	}
	return fmt.Sprintf("%s: %s", n.Source, n.Message)
}

// NewNotice builds a Notice for the named backend.
func NewNotice(source, format string, args ...any) *Notice {
	return &Notice{Source: source, Message: fmt.Sprintf(format, args...)}
}

// AsNotice extracts a Notice from err's chain.
func AsNotice(err error) (*Notice, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}
