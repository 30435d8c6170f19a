package export

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest is the signed metadata embedded in an album archive.
type Manifest struct {
	Version          string          `yaml:"version"`
	AlbumID          string          `yaml:"album_id"`
	AlbumName        string          `yaml:"album_name"`
	CreatedAt        time.Time       `yaml:"created_at"`
	Signer           string          `yaml:"signer,omitempty"`
	SigningPublicKey string          `yaml:"signing_public_key,omitempty"`
	Signature        string          `yaml:"signature,omitempty"`
	Assets           []ManifestAsset `yaml:"assets"`
}

// SigningBytes marshals the manifest without its signature for signing/verification.
func (m Manifest) SigningBytes() ([]byte, error) {
	clone := m
	clone.Signature = ""
	return yaml.Marshal(clone)
}

// ManifestAsset describes a single media file within the archive.
type ManifestAsset struct {
	Path   string `yaml:"path"`
	Kind   string `yaml:"kind"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}
