package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts all files from a ZIP archive to the destination directory.
// Returns the list of extracted file paths.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var extracted []string
	for _, f := range r.File {
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		if path != "" {
			extracted = append(extracted, path)
		}
	}

	return extracted, nil
}

// FindShapefile returns the single .shp among paths. Its .dbf sidecar must be
// present too.
func FindShapefile(paths []string) (string, error) {
	var shps []string
	have := make(map[string]bool, len(paths))
	for _, p := range paths {
		have[strings.ToLower(p)] = true
		if strings.EqualFold(filepath.Ext(p), ".shp") {
			shps = append(shps, p)
		}
	}
	sort.Strings(shps)

	switch len(shps) {
	case 0:
		return "", eris.New("zip: archive contains no .shp file")
	case 1:
	default:
		return "", eris.Errorf("zip: archive contains %d .shp files: %s", len(shps), strings.Join(shps, ", "))
	}

	dbf := strings.TrimSuffix(shps[0], filepath.Ext(shps[0])) + ".dbf"
	if !have[strings.ToLower(dbf)] {
		return "", eris.Errorf("zip: %s has no .dbf attribute file", filepath.Base(shps[0]))
	}
	return shps[0], nil
}

// extractZIPEntry extracts a single zip.File to the destination directory.
// Returns the extracted file path, or empty string for directories.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "zip: create directory")
		}
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}

	return destPath, nil
}
