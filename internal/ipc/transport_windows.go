//go:build windows

package ipc

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

// everyoneFullAccess grants GENERIC_ALL to the Everyone group (WD) so any
// local process may connect to the pipe.
const everyoneFullAccess = "D:P(A;;GA;;;WD)"

func listen(path string) (net.Listener, error) {
	listener, err := winio.ListenPipe(path, &winio.PipeConfig{
		SecurityDescriptor: everyoneFullAccess,
	})
	if err != nil {
		return nil, fmt.Errorf("listen on pipe: %w", err)
	}
	return listener, nil
}

func dial(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
