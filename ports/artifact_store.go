package ports

import "takforge/domain/core"

// StoredArtifact is one generated XML document headed for persistence.
type StoredArtifact struct {
	Sheet  core.SheetName
	TakID  core.TakID
	Name   core.TakName
	Status core.ArtifactStatus
	Text   string
}

// ArtifactStore persists generated artifacts and packages them for delivery
type ArtifactStore interface {
	// Save writes the artifact and returns its store-relative filename
	Save(artifact StoredArtifact) (string, error)

	// Package bundles every usable artifact into a zip at the given path,
	// returning the number of files included
	Package(zipPath string) (int, error)
}
