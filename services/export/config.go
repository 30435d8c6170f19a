package export

import (
	"io"
	"time"
)

// BuildConfig configures archive creation.
type BuildConfig struct {
	AlbumID   string
	AlbumName string
	MediaDir  string
	Output    string
	Signer    *Signer
	Renderer  ReadmeRenderer
	Now       func() time.Time
	Stdout    io.Writer
}

// VerifyConfig configures archive verification.
type VerifyConfig struct {
	ArchivePath string
	Signer      *Signer
	Stdout      io.Writer
}

// ReadmeRenderer renders the human-readable README included in archives.
type ReadmeRenderer interface {
	Render(name string, data any) (string, error)
}
