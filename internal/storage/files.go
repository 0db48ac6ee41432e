package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// FileManager owns the on-disk object store for raw report files and
// generated quotation PDFs. The rest of the system only ever sees opaque
// storage keys.
type FileManager struct {
	baseDir        string
	reportDir      string
	pdfDir         string
	maxUploadBytes int64
}

var reportExtensions = map[string]bool{
	".txt": true,
	".log": true,
	".csv": true,
	".xml": true,
}

func NewFileManager(baseDir string, maxUploadBytes int64) (*FileManager, error) {
	fm := &FileManager{
		baseDir:        baseDir,
		reportDir:      filepath.Join(baseDir, "reports"),
		pdfDir:         filepath.Join(baseDir, "pdf"),
		maxUploadBytes: maxUploadBytes,
	}

	dirs := []string{fm.baseDir, fm.reportDir, fm.pdfDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	return fm, nil
}

// SaveReport streams an uploaded report to disk and returns its storage key,
// the bytes written and the sniffed content type.
func (fm *FileManager) SaveReport(r io.Reader, filename string) (key string, size int64, mime string, err error) {
	sample := make([]byte, 512)
	n, err := r.Read(sample)
	if err != nil && err != io.EOF {
		return "", 0, "", fmt.Errorf("read report sample: %w", err)
	}
	sample = sample[:n]

	mime = strings.ToLower(http.DetectContentType(sample))

	ext := strings.ToLower(filepath.Ext(filename))
	if !reportExtensions[ext] {
		ext = ".txt"
	}

	key = uuid.NewString() + ext
	path := filepath.Join(fm.reportDir, key)

	if err := fm.writeWithLimit(path, sample, r); err != nil {
		return "", 0, "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, "", fmt.Errorf("stat saved report: %w", err)
	}

	return key, info.Size(), mime, nil
}

// Get fetches the raw report bytes for a storage key.
func (fm *FileManager) Get(key string) ([]byte, error) {
	path := filepath.Join(fm.reportDir, filepath.Base(key))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.NotFoundf("report file %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	return data, nil
}

func (fm *FileManager) Remove(key string) {
	if key == "" {
		return
	}
	_ = os.Remove(filepath.Join(fm.reportDir, filepath.Base(key)))
}

func (fm *FileManager) PDFPath(id string) string {
	return filepath.Join(fm.pdfDir, fmt.Sprintf("%s.pdf", id))
}

func (fm *FileManager) writeWithLimit(path string, sample []byte, r io.Reader) error {
	if fm.maxUploadBytes > 0 && int64(len(sample)) > fm.maxUploadBytes {
		return fmt.Errorf("report file exceeds maximum size")
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	total := int64(0)

	cleanup := func(err error) error {
		out.Close()
		os.Remove(path)
		return err
	}

	if len(sample) > 0 {
		if _, err := out.Write(sample); err != nil {
			return cleanup(fmt.Errorf("write report sample: %w", err))
		}
		total += int64(len(sample))
	}

	buf := make([]byte, 32*1024)
	for {
		if fm.maxUploadBytes > 0 && total >= fm.maxUploadBytes {
			return cleanup(fmt.Errorf("report file exceeds maximum size"))
		}

		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if fm.maxUploadBytes > 0 && total > fm.maxUploadBytes {
				return cleanup(fmt.Errorf("report file exceeds maximum size"))
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return cleanup(fmt.Errorf("write report file: %w", werr))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return cleanup(fmt.Errorf("read report content: %w", err))
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close report file: %w", err)
	}

	return nil
}
