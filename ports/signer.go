package ports

import "context"

// Signer produces the CMS payload sent to loginCms for a login ticket request.
type Signer interface {
	Sign(ctx context.Context, document []byte) (string, error)
}
