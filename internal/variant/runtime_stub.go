//go:build !govips || !cgo

package variant

func Startup() error {
	return nil
}

func Shutdown() {}

// NewResizer returns the default crop-to-fill implementation for this build.
func NewResizer() Resizer {
	return imagingResizer{}
}
