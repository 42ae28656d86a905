package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxUploadSize bounds a single image upload.
const MaxUploadSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var errBadImage = errors.New("only JPEG, PNG, GIF and WEBP images up to 5MB are allowed")

// Uploads writes images under Dir and names them by uuid.
type Uploads struct {
	Dir string
}

// Save stores file and returns its public path, e.g. "uploads/<uuid>.png".
func (u *Uploads) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadSize {
		return "", errBadImage
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", errBadImage
	}
	ext, ok := allowedImageTypes[http.DetectContentType(sniff[:n])]
	if !ok {
		return "", errBadImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	if err := os.MkdirAll(u.Dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	fileName := uuid.NewString() + ext
	out, err := os.Create(filepath.Join(u.Dir, fileName))
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(file, MaxUploadSize+1)); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return "uploads/" + fileName, nil
}

// formImage reads the optional image in field. It returns "" when the form
// has no such file.
func (u *Uploads) formImage(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", errBadImage
	}
	defer file.Close()
	return u.Save(file, header)
}
