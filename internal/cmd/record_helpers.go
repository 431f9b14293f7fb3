package cmd

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/validate"
)

// photoFile is an image opened for upload.
type photoFile struct {
	*os.File
	name        string
	contentType string
}

// openPhoto opens path and works out its content type from the extension,
// falling back to sniffing the first bytes. Only images are accepted.
func openPhoto(path string) (*photoFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, clierrors.WrapUserError(err, fmt.Sprintf("cannot open photo %q", path), "Check the file path")
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		head := make([]byte, 512)
		n, readErr := io.ReadFull(f, head)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			_ = f.Close()
			return nil, fmt.Errorf("failed to read photo: %w", readErr)
		}
		contentType = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to rewind photo: %w", err)
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	if !strings.HasPrefix(contentType, "image/") {
		_ = f.Close()
		return nil, &clierrors.ValidationError{
			Field:   "photo",
			Message: fmt.Sprintf("%s is %s, not an image", filepath.Base(path), contentType),
		}
	}
	return &photoFile{File: f, name: filepath.Base(path), contentType: contentType}, nil
}

// validateListOptions rejects negative paging values.
func validateListOptions(opts petapi.ListOptions) error {
	return validate.ListOptions(opts.Page, opts.Size)
}

func deletedResult(entityType string, id int64) map[string]interface{} {
	return map[string]interface{}{
		"status": "deleted",
		"type":   entityType,
		"id":     id,
	}
}
