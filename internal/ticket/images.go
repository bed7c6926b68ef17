package ticket

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/google/uuid"
)

const DefaultMaxImageBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var (
	ErrImageTooLarge = errors.NewValidationFieldError("image", "image must not exceed 5 MiB", errors.ErrCodeInvalidImage)
	ErrImageType     = errors.NewValidationFieldError("image", "image must be a jpeg, png or webp file", errors.ErrCodeInvalidImage)
)

// DetectImageType sniffs the content and returns its mime type and file
// extension.
func DetectImageType(data []byte) (string, string, error) {
	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", "", ErrImageType
	}
	return contentType, ext, nil
}

type ImageStore interface {
	Save(ticketID int64, ext string, data []byte) (string, error)
	Remove(path string) error
}

// DiskImageStore keeps uploads under dir/<ticket id>/.
type DiskImageStore struct {
	dir string
}

func NewDiskImageStore(dir string) *DiskImageStore {
	return &DiskImageStore{dir: dir}
}

func (s *DiskImageStore) Save(ticketID int64, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.dir, fmt.Sprintf("%d", ticketID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func (s *DiskImageStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
