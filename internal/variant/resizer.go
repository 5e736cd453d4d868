package variant

import "context"

// Resizer performs the crop-to-fill transform: scale the source so it fully
// covers the target box, then center-crop to the exact dimensions. The
// output extension selects the encoding; metadata is not carried over.
type Resizer interface {
	Fill(ctx context.Context, src []byte, width, height int, ext string) ([]byte, error)
}
