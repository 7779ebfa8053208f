package writer

import (
	"fmt"
	"io"
	"os"
)

// WriteFile creates path and fills it with write. The file is closed once;
// a failed close is reported like a failed write, since buffered data may
// not have reached the disk.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %q: %w", path, cerr)
		}
	}()
	return write(f)
}
