package export

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

const (
	manifestFileName = "manifest.yaml"
	readmeFileName   = "README.txt"
	mediaTarPrefix   = "media"
)

// Build assembles a signed tar.zst archive of an album's media directory.
// The archive is self-contained: manifest, README, and every media file,
// so a family can keep it long after the album goes offline.
func Build(ctx context.Context, cfg BuildConfig) (*Manifest, error) {
	if cfg.AlbumID == "" {
		return nil, errors.New("album id is required")
	}
	if cfg.MediaDir == "" {
		return nil, errors.New("media directory is required")
	}
	if cfg.Output == "" {
		return nil, errors.New("output path is required")
	}
	if cfg.Signer == nil {
		return nil, errors.New("signer is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("stat media dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media dir %q is not a directory", cfg.MediaDir)
	}

	assets, err := collectAssets(ctx, cfg.MediaDir)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, errors.New("no media files found to archive")
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Path < assets[j].Path
	})

	manifest := &Manifest{
		Version:          "1",
		AlbumID:          cfg.AlbumID,
		AlbumName:        cfg.AlbumName,
		CreatedAt:        cfg.Now().UTC().Truncate(time.Second),
		Signer:           cfg.Signer.Recipient(),
		SigningPublicKey: cfg.Signer.PublicKeyBase64(),
		Assets:           assets,
	}

	payload, err := manifest.SigningBytes()
	if err != nil {
		return nil, fmt.Errorf("marshal manifest for signing: %w", err)
	}
	sig, err := cfg.Signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign manifest: %w", err)
	}
	manifest.Signature = sig

	manifestBytes, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	var readme string
	if cfg.Renderer != nil {
		readme, err = cfg.Renderer.Render("export_readme.tmpl", map[string]any{
			"AlbumName":  manifest.AlbumName,
			"CreatedAt":  manifest.CreatedAt.Format(time.RFC3339),
			"AssetCount": len(assets),
		})
		if err != nil {
			return nil, fmt.Errorf("render readme: %w", err)
		}
	}

	if err := writeArchive(cfg.Output, manifestBytes, readme, cfg.MediaDir, assets); err != nil {
		return nil, err
	}

	fmt.Fprintf(cfg.Stdout, "wrote archive %s (%d media files)\n", cfg.Output, len(assets))
	return manifest, nil
}

func collectAssets(ctx context.Context, root string) ([]ManifestAsset, error) {
	var assets []ManifestAsset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %q: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %q: %w", path, err)
		}
		hash := sha256.New()
		size, err := io.Copy(hash, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("hash %q: %w", path, err)
		}

		assets = append(assets, ManifestAsset{
			Path:   rel,
			Kind:   inferKind(rel),
			Size:   size,
			SHA256: hex.EncodeToString(hash.Sum(nil)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func writeArchive(output string, manifest []byte, readme, mediaDir string, assets []ManifestAsset) error {
	dir := filepath.Dir(output)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	defer encoder.Close()

	tw := tar.NewWriter(encoder)
	defer tw.Close()

	writeEntry := func(name string, data []byte) error {
		header := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(data)),
			ModTime:  time.Now().UTC(),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write header for %q: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("write body for %q: %w", name, err)
		}
		return nil
	}

	if err := writeEntry(manifestFileName, manifest); err != nil {
		return err
	}
	if readme != "" {
		if err := writeEntry(readmeFileName, []byte(readme)); err != nil {
			return err
		}
	}

	for _, asset := range assets {
		fullPath := filepath.Join(mediaDir, filepath.FromSlash(asset.Path))
		info, err := os.Stat(fullPath)
		if err != nil {
			return fmt.Errorf("stat %q: %w", asset.Path, err)
		}
		src, err := os.Open(fullPath)
		if err != nil {
			return fmt.Errorf("open %q: %w", asset.Path, err)
		}

		header := &tar.Header{
			Name:     filepath.ToSlash(filepath.Join(mediaTarPrefix, asset.Path)),
			Mode:     int64(info.Mode().Perm()),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			src.Close()
			return fmt.Errorf("write header for %q: %w", asset.Path, err)
		}
		if _, err := io.Copy(tw, src); err != nil {
			src.Close()
			return fmt.Errorf("copy %q: %w", asset.Path, err)
		}
		src.Close()
	}

	return nil
}

func inferKind(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "photo"
	case strings.HasSuffix(lower, ".png"):
		return "photo"
	case strings.HasSuffix(lower, ".heic"):
		return "photo"
	case strings.HasSuffix(lower, ".gif"):
		return "animation"
	case strings.HasSuffix(lower, ".mp4") || strings.HasSuffix(lower, ".mov"):
		return "video"
	case strings.HasSuffix(lower, ".pdf"):
		return "layout"
	default:
		return "file"
	}
}

// Verify extracts an archive, checks the manifest signature, and validates
// the size and digest of every media file against the manifest.
func Verify(ctx context.Context, cfg VerifyConfig) (*Manifest, error) {
	if cfg.ArchivePath == "" {
		return nil, errors.New("archive file is required")
	}
	if cfg.Signer == nil {
		return nil, errors.New("signer is required")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archiveFile, err := os.Open(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	decoder, err := zstd.NewReader(archiveFile)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer decoder.Close()

	tr := tar.NewReader(decoder)
	tempDir, err := os.MkdirTemp("", "albumd-export-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var (
		manifestBytes []byte
		files         = map[string]string{}
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}

		name := filepath.Clean(header.Name)
		if header.Typeflag != tar.TypeReg {
			continue
		}

		if name == manifestFileName {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read manifest: %w", err)
			}
			manifestBytes = data
			continue
		}
		if name == readmeFileName {
			continue
		}

		targetPath := filepath.Join(tempDir, name)
		if !strings.HasPrefix(targetPath, tempDir) {
			return nil, fmt.Errorf("invalid entry path %q", name)
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", filepath.Dir(targetPath), err)
		}
		dst, err := os.Create(targetPath)
		if err != nil {
			return nil, fmt.Errorf("create temp file for %q: %w", name, err)
		}
		if _, err := io.Copy(dst, tr); err != nil {
			dst.Close()
			return nil, fmt.Errorf("write temp file for %q: %w", name, err)
		}
		dst.Close()

		files[name] = targetPath
	}

	if len(manifestBytes) == 0 {
		return nil, errors.New("archive missing manifest.yaml")
	}

	var manifest Manifest
	if err := yaml.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Version != "1" {
		return nil, fmt.Errorf("unsupported manifest version %q", manifest.Version)
	}
	if manifest.Signature == "" {
		return nil, errors.New("manifest missing signature")
	}

	payload, err := manifest.SigningBytes()
	if err != nil {
		return nil, fmt.Errorf("marshal manifest for verification: %w", err)
	}
	if err := cfg.Signer.Verify(payload, manifest.Signature, manifest.SigningPublicKey); err != nil {
		return nil, fmt.Errorf("verify manifest signature: %w", err)
	}

	fmt.Fprintf(cfg.Stdout, "verified manifest for album %s signed at %s\n",
		manifest.AlbumID, manifest.CreatedAt.Format(time.RFC3339))

	for _, asset := range manifest.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		relative := filepath.ToSlash(filepath.Clean(asset.Path))
		tarPath := filepath.ToSlash(filepath.Join(mediaTarPrefix, relative))
		tempPath, ok := files[tarPath]
		if !ok {
			return nil, fmt.Errorf("asset %q missing from archive", relative)
		}
		if err := validateAsset(tempPath, asset); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(cfg.Stdout, "all %d media files verified\n", len(manifest.Assets))
	return &manifest, nil
}

func validateAsset(path string, asset ManifestAsset) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", asset.Path, err)
	}
	defer file.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		return fmt.Errorf("hash %q: %w", asset.Path, err)
	}
	if size != asset.Size {
		return fmt.Errorf("size mismatch for %q: expected %d got %d", asset.Path, asset.Size, size)
	}
	computed := hex.EncodeToString(hash.Sum(nil))
	if !strings.EqualFold(computed, asset.SHA256) {
		return fmt.Errorf("sha256 mismatch for %q", asset.Path)
	}
	return nil
}
