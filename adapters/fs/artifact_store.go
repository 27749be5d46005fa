// Package fs persists generated artifacts as XML files, one folder per
// sheet, and packages the usable set into a delivery zip.
package fs

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"takforge/domain/core"
	"takforge/ports"
)

// sheetPrefixes maps each sheet to its filename prefix.
var sheetPrefixes = map[core.SheetName]string{
	core.SheetRawConcepts: "CONCEPT",
	core.SheetStates:      "STATE",
	core.SheetEvents:      "EVENT",
	core.SheetContexts:    "CONTEXT",
	core.SheetTrends:      "TREND",
}

// ArtifactStore writes artifacts under a root directory.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates a store rooted at the given directory.
func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{root: root}
}

// Save writes the artifact into its sheet folder and returns the
// store-relative filename. Failed outcomes carry a status marker in the name
// so downstream loaders never pick them up by accident.
func (s *ArtifactStore) Save(artifact ports.StoredArtifact) (string, error) {
	prefix, ok := sheetPrefixes[artifact.Sheet]
	if !ok {
		return "", fmt.Errorf("unknown sheet '%s'", artifact.Sheet)
	}

	dir := filepath.Join(s.root, string(artifact.Sheet))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s.xml", prefix, artifact.Status.Marker(), sanitize(artifact.Name))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(artifact.Text), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	relative := filepath.ToSlash(filepath.Join(string(artifact.Sheet), filename))
	log.Printf("[ArtifactStore] saved %s (%s)", relative, artifact.Status)
	return relative, nil
}

// sanitize turns a TAK name into a filename-safe token.
func sanitize(name core.TakName) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name.String()))
	return strings.ToUpper(cleaned)
}

// Package bundles every usable artifact into a zip at the given path. Files
// carrying a failure marker are excluded; the zip mirrors the sheet folders.
func (s *ArtifactStore) Package(zipPath string) (int, error) {
	out, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("create package: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	count := 0

	for _, sheet := range core.SheetOrder() {
		dir := filepath.Join(s.root, string(sheet))
		files, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return count, fmt.Errorf("read artifact directory: %w", err)
		}
		for _, file := range files {
			name := file.Name()
			if file.IsDir() || !strings.HasSuffix(name, ".xml") || excluded(name) {
				continue
			}
			if err := addToZip(w, filepath.Join(dir, name), filepath.ToSlash(filepath.Join(string(sheet), name))); err != nil {
				return count, err
			}
			count++
		}
	}

	if err := w.Close(); err != nil {
		return count, fmt.Errorf("finalize package: %w", err)
	}
	log.Printf("[ArtifactStore] packaged %d artifacts into %s", count, zipPath)
	return count, nil
}

// excluded reports whether a filename carries a failure status marker.
func excluded(name string) bool {
	for _, status := range []core.ArtifactStatus{core.ArtifactInvalid, core.ArtifactNeedsReview} {
		if strings.Contains(name, "_"+status.Marker()) {
			return true
		}
	}
	return false
}

func addToZip(w *zip.Writer, path, zipName string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact for packaging: %w", err)
	}
	defer src.Close()

	dst, err := w.Create(zipName)
	if err != nil {
		return fmt.Errorf("add %s to package: %w", zipName, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s into package: %w", zipName, err)
	}
	return nil
}
