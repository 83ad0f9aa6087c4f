package issuer

// images.go loads the bundle image set from the assets directory at startup.
// the images are template assets shared by every issued card, so they are
// read once and kept in memory.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/brightcard/walletpass/internal/bundle"
)

// LoadImages reads the required (and any optional) bundle images from dir.
//
// Missing required images are an error at startup - discovering them per
// issuance would fail every request anyway.
func LoadImages(dir string) (map[string][]byte, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open assets directory %s: %w", dir, err)
	}
	defer root.Close()

	images := make(map[string][]byte)

	for _, name := range bundle.RequiredImages {
		data, err := root.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("required image %s: %w", name, err)
		}
		images[name] = data
	}

	for _, name := range bundle.OptionalImages {
		data, err := root.ReadFile(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("optional image %s: %w", name, err)
		}
		images[name] = data
	}

	return images, nil
}
