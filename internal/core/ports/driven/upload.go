package driven

import (
	"io"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// UploadParser turns an uploaded byte stream into a RawUpload.
type UploadParser interface {
	// Parse reads delimited text from r. name is the upload's file name.
	// Returns domain.ErrEmptyUpload when there is no header or no data row,
	// and domain.ErrUnreadableUpload when the content is not delimited text.
	Parse(name string, r io.Reader) (*domain.RawUpload, error)
}
