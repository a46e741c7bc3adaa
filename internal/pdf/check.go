package pdf

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// Check validates the structure of a PDF file and returns its page count
func Check(data []byte) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	if err := api.Validate(bytes.NewReader(data), nil); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return pages, nil
}
