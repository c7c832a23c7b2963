package frame

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonwalk/moonwalk/internal/errors"
)

// ReadCSV reads a whole CSV file into a frame. The first record is the
// header. A file that cannot be read or parsed is a structural failure:
// the run aborts and nothing is published.
func ReadCSV(path, name string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewInputError(errors.CodeFileNotFound,
			fmt.Sprintf("cannot open %s", path), err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.NewInputError(errors.CodeUnreadableInput,
			fmt.Sprintf("cannot parse %s", path), err)
	}
	if len(records) == 0 {
		return nil, errors.NewInputError(errors.CodeUnreadableInput,
			fmt.Sprintf("%s has no header row", path), nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	f := New(name, header)
	for i, rec := range records[1:] {
		// A row wider than the header would lose its surplus cells.
		// That is never tolerable silently: it is the same defect class
		// as a silent cast truncation, so the whole file is rejected.
		if len(rec) > len(header) {
			return nil, errors.NewInputError(errors.CodeUnreadableInput,
				fmt.Sprintf("%s row %d has %d cells, header has %d", path, i+2, len(rec), len(header)), nil)
		}
		if err := f.Append(rec); err != nil {
			return nil, errors.NewInputError(errors.CodeUnreadableInput,
				fmt.Sprintf("%s row %d", path, i+2), err)
		}
	}
	return f, nil
}

// FindExport locates the newest CleanCloud export in dir whose filename
// contains pattern. Export filenames carry a CC- marker; derived
// Excel_ staging files are skipped. Returns a FILE_NOT_FOUND input
// error when no export matches.
func FindExport(dir, pattern string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.NewInputError(errors.CodeFileNotFound,
			fmt.Sprintf("cannot list %s", dir), err)
	}

	pattern = strings.ToLower(pattern)
	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".csv") {
			continue
		}
		if !strings.Contains(lower, pattern) {
			continue
		}
		if strings.HasPrefix(name, "Excel_") || !strings.Contains(name, "CC-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = name
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", errors.NewInputError(errors.CodeFileNotFound,
			fmt.Sprintf("no CleanCloud export matching %q in %s", pattern, dir), nil)
	}

	return filepath.Join(dir, newest), nil
}
