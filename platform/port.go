package platform

import "context"

// Port is the host serial link with a gated receive path.
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
	EnableRX()
	DisableRX()
}
