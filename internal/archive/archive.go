package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/alpacatrans/internal"
)

// Dir is the name of the backup directory created next to the sink
const Dir = "archive"

// ArchiveSink copies the sink file into the archive directory next to it
// under a timestamped name and returns the path of the copy. The sink
// itself is left in place.
func ArchiveSink(sinkPath string) (string, error) {
	info, err := os.Stat(sinkPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("sink file does not exist: %s", sinkPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat sink file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("sink path is a directory: %s", sinkPath)
	}

	archiveDir := filepath.Join(filepath.Dir(sinkPath), Dir)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := internal.SanitizeFilename(filepath.Base(sinkPath))
	now := time.Now()
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, now.Format("20060102-150405")))

	// Two finalize runs within the same second
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, now.Format("20060102-150405.000000")))
	}

	if err := copyFile(sinkPath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive sink file: %w", err)
	}

	return archivePath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
