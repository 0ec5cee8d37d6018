package content

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// VerifyPDF checks that path holds a well-formed PDF and reports its page
// count. Engines render page exports without validating them, so callers
// that persist a PDF verify it here.
func VerifyPDF(path string) (int, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("pdf validation failed: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pdf pages: %w", err)
	}
	return pages, nil
}
