package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultUploadLimit is the largest accepted CSV upload.
const DefaultUploadLimit int64 = 16 << 20

var (
	ErrNoFile       = errors.New("no file provided")
	ErrNotCSV       = errors.New("only CSV files are allowed")
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file too large")
	ErrNotUTF8      = errors.New("file is not valid UTF-8 text")
)

// CSVUpload is a decoded CSV file taken from a multipart form.
type CSVUpload struct {
	Filename string
	Text     string
}

// ReadCSVUpload reads the multipart field named field. The file must have a .csv
// extension, be non-empty, fit in limit bytes and be UTF-8.
func ReadCSVUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) (CSVUpload, error) {
	if limit <= 0 {
		limit = DefaultUploadLimit
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CSVUpload{}, ErrFileTooLarge
		}
		return CSVUpload{}, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return CSVUpload{}, ErrNoFile
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." {
		return CSVUpload{}, ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return CSVUpload{}, ErrNotCSV
	}
	if header.Size > limit {
		return CSVUpload{}, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return CSVUpload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return CSVUpload{}, ErrFileTooLarge
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return CSVUpload{}, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return CSVUpload{}, ErrNotUTF8
	}
	return CSVUpload{Filename: name, Text: string(data)}, nil
}

// UploadStatus maps an upload error to an HTTP status.
func UploadStatus(err error) int {
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
