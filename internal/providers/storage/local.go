package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalProvider writes files under a directory served as /avatars/.
type LocalProvider struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *LocalProvider {
	return &LocalProvider{dir: dir, baseURL: baseURL}
}

func (p *LocalProvider) Save(ctx context.Context, name string, contentType string, content []byte) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(p.dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("%s/avatars/%s", p.baseURL, name), nil
}
