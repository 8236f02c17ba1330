package diagnosis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",
}

const defaultMimeType = "image/jpeg"

// MimeType picks the MIME type sent to the model. A declared image/* type
// wins; otherwise the filename extension decides.
func MimeType(declared, filename string) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionMimeTypes[ext]; ok {
		return mt
	}
	return defaultMimeType
}

// ValidateUploads reads every upload and splits them into accepted images
// and rejections, both in input order.
func ValidateUploads(files []Upload) ([]ProcessedImage, []Rejection) {
	var accepted []ProcessedImage
	var rejected []Rejection
	for _, f := range files {
		content, size, err := readBounded(f, MaxFileSize)
		switch {
		case err != nil:
			rejected = append(rejected, Rejection{Filename: f.Filename, Error: "Processing error: " + err.Error()})
		case size == 0:
			rejected = append(rejected, Rejection{Filename: f.Filename, Error: "File is empty"})
		case size > MaxFileSize:
			rejected = append(rejected, Rejection{
				Filename: f.Filename,
				Error:    fmt.Sprintf("File too large (%.2fMB)", float64(size)/1024/1024),
			})
		default:
			accepted = append(accepted, ProcessedImage{
				Filename:  f.Filename,
				Content:   content,
				MimeType:  MimeType(f.ContentType, f.Filename),
				SizeBytes: len(content),
			})
		}
	}
	return accepted, rejected
}

// readBounded buffers at most limit+1 bytes. When the upload is larger the
// rest is counted but not kept, and content is nil.
func readBounded(f Upload, limit int64) ([]byte, int64, error) {
	if f.Open == nil {
		return nil, 0, errors.New("file is not readable")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, 0, err
	}
	size := int64(len(content))
	if size <= limit {
		return content, size, nil
	}
	rest, err := io.Copy(io.Discard, rc)
	if err != nil {
		return nil, 0, err
	}
	return nil, size + rest, nil
}

// FileHeaderUpload wraps a multipart file part.
func FileHeaderUpload(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// BytesUpload wraps in-memory content.
func BytesUpload(filename, contentType string, data []byte) Upload {
	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// PathUpload wraps a local file; the MIME type comes from its extension.
func PathUpload(path string) Upload {
	return Upload{
		Filename: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
