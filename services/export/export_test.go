package export

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()

	seed := bytes.Repeat([]byte{0x42}, ed25519.SeedSize)
	privateKey := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		privateKey: privateKey,
		publicKey:  ed25519.PublicKey(privateKey[ed25519.SeedSize:]),
	}
}

func TestSignerRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	payload := []byte("album manifest payload")
	sig, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if err := signer.Verify(payload, sig, signer.PublicKeyBase64()); err != nil {
		t.Errorf("Verify: %v", err)
	}

	if err := signer.Verify([]byte("tampered"), sig, signer.PublicKeyBase64()); err == nil {
		t.Error("Verify accepted a tampered payload")
	}

	// A verifier holding only the embedded public key must succeed.
	verifier := &Signer{}
	if err := verifier.Verify(payload, sig, signer.PublicKeyBase64()); err != nil {
		t.Errorf("Verify with manifest key only: %v", err)
	}
}

func TestManifestSigningBytesExcludesSignature(t *testing.T) {
	manifest := Manifest{
		Version:   "1",
		AlbumID:   "album-1",
		AlbumName: "Class of 2026",
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	unsigned, err := manifest.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes: %v", err)
	}

	manifest.Signature = "deadbeef"
	signed, err := manifest.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes with signature: %v", err)
	}

	if !bytes.Equal(unsigned, signed) {
		t.Error("signature leaked into the signing payload")
	}
}

type staticRenderer struct{}

func (staticRenderer) Render(name string, data any) (string, error) {
	return "archive readme", nil
}

func TestBuildAndVerify(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)

	mediaDir := t.TempDir()
	writeFile := func(rel string, data []byte) {
		t.Helper()
		path := filepath.Join(mediaDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	writeFile("cover.jpg", []byte("jpeg bytes"))
	writeFile("pages/page-01.pdf", []byte("pdf bytes"))

	output := filepath.Join(t.TempDir(), "album.tar.zst")

	var buildOut bytes.Buffer
	manifest, err := Build(ctx, BuildConfig{
		AlbumID:   "album-1",
		AlbumName: "Class of 2026",
		MediaDir:  mediaDir,
		Output:    output,
		Signer:    signer,
		Renderer:  staticRenderer{},
		Now:       func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
		Stdout:    &buildOut,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(manifest.Assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(manifest.Assets))
	}
	if manifest.Assets[0].Path != "cover.jpg" {
		t.Errorf("assets not sorted: first is %q", manifest.Assets[0].Path)
	}
	if manifest.Assets[0].Kind != "photo" {
		t.Errorf("kind = %q, want photo", manifest.Assets[0].Kind)
	}
	if manifest.Signature == "" {
		t.Error("manifest not signed")
	}

	var verifyOut bytes.Buffer
	verified, err := Verify(ctx, VerifyConfig{
		ArchivePath: output,
		Signer:      &Signer{}, // only the embedded manifest key
		Stdout:      &verifyOut,
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.AlbumID != "album-1" {
		t.Errorf("album_id = %q, want album-1", verified.AlbumID)
	}
	if len(verified.Assets) != 2 {
		t.Errorf("verified assets = %d, want 2", len(verified.Assets))
	}
}

func TestBuildRejectsEmptyMediaDir(t *testing.T) {
	_, err := Build(context.Background(), BuildConfig{
		AlbumID:  "album-1",
		MediaDir: t.TempDir(),
		Output:   filepath.Join(t.TempDir(), "out.tar.zst"),
		Signer:   newTestSigner(t),
	})
	if err == nil {
		t.Fatal("Build succeeded on an empty media directory")
	}
}

func TestInferKind(t *testing.T) {
	tests := map[string]string{
		"photos/a.JPG":  "photo",
		"photos/b.png":  "photo",
		"clips/c.mp4":   "video",
		"pages/d.pdf":   "layout",
		"notes/e.txt":   "file",
		"anim/f.gif":    "animation",
		"photos/g.heic": "photo",
	}
	for path, want := range tests {
		if got := inferKind(path); got != want {
			t.Errorf("inferKind(%q) = %q, want %q", path, got, want)
		}
	}
}
