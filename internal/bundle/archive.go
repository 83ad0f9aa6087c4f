package bundle

// archive.go packages the validated pass files into the ZIP container the
// wallet app installs.
//
// archive/zip from the standard library is used directly - entry ordering and
// compression level are not significant to the consumer, only the entry names
// and bytes are.

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/brightcard/walletpass/internal/pass"
)

// Input carries the files to be packaged into a bundle.
type Input struct {

	// Document is the pass.json bytes
	Document []byte

	// Manifest is the serialized (canonical) manifest bytes
	Manifest []byte

	// Signature is the detached signature over Manifest
	Signature []byte

	// Images maps image filenames to their bytes
	Images map[string][]byte
}

// ValidateFiles checks the pass document and image set.
//
// The issuer calls this before the manifest is signed so an invalid bundle is
// rejected before any signing work, and Pack calls it again as part of full
// input validation.
func ValidateFiles(document []byte, images map[string][]byte) error {
	if _, err := pass.ParseDocument(document); err != nil {
		return WrapValidationError(err, "invalid pass document")
	}

	for _, name := range RequiredImages {
		if len(images[name]) == 0 {
			return NewValidationError("required image is missing: " + name)
		}
	}

	allowed := make(map[string]bool, len(RequiredImages)+len(OptionalImages))
	for _, name := range RequiredImages {
		allowed[name] = true
	}
	for _, name := range OptionalImages {
		allowed[name] = true
	}
	for name := range images {
		if !allowed[name] {
			return NewValidationError("unexpected file in bundle: " + name)
		}
	}

	return nil
}

// Validate checks the bundle input before any archive bytes are produced.
//
// This runs the document validation, the required/allowed image checks and
// the manifest 1:1 invariant - an invalid bundle must be rejected here, never
// emitted as if valid.
func (in *Input) Validate() error {
	if len(in.Signature) == 0 {
		return NewValidationError("signature is required")
	}

	if err := ValidateFiles(in.Document, in.Images); err != nil {
		return err
	}

	manifest, err := ParseManifest(in.Manifest)
	if err != nil {
		return err
	}

	return manifest.Verify(in.hashedFiles())
}

// hashedFiles returns the files covered by the manifest: the document plus
// every image. The manifest and signature files are not listed in the
// manifest - the signature covers the manifest and the manifest covers the rest.
func (in *Input) hashedFiles() map[string][]byte {
	files := make(map[string][]byte, len(in.Images)+1)
	files[DocumentFile] = in.Document
	for name, data := range in.Images {
		files[name] = data
	}
	return files
}

// Pack validates the input and writes the ZIP archive.
func Pack(in Input) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entries := map[string][]byte{
		DocumentFile:  in.Document,
		ManifestFile:  in.Manifest,
		SignatureFile: in.Signature,
	}
	for name, data := range in.Images {
		entries[name] = data
	}

	for name, data := range entries {
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

// Unpack reads a bundle archive back into its named entries.
// used by verification and tests.
func Unpack(data []byte) (map[string][]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapValidationError(err, "could not read archive")
	}

	entries := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}
		rc.Close()
		entries[f.Name] = buf.Bytes()
	}

	return entries, nil
}
