package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/config"
	"github.com/gmaisuradze-adm/hospital-inventory-project-sub000/internal/storage"
)

const (
	itemsObject  = "items.csv"
	demandObject = "demand.csv"
)

type inputDownloader struct {
	client  storage.ObjectStorage
	baseDir string
}

func newInputDownloader(cfg config.StorageConfig, baseDir string) (*inputDownloader, error) {
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	if baseDir == "" {
		baseDir = "./data/tmp/inputs"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", baseDir, err)
	}
	return &inputDownloader{client: client, baseDir: baseDir}, nil
}

// fetchInputs downloads the item master and demand files stored under prefix.
func (d *inputDownloader) fetchInputs(ctx context.Context, prefix string) (string, string, error) {
	objects, err := d.client.ListObjects(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return "", "", fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
	}

	keys, err := selectInputKeys(prefix, objects)
	if err != nil {
		return "", "", err
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(d.baseDir, objectRelativePath(prefix, key))
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return "", "", err
		}
		paths = append(paths, localPath)
	}
	return paths[0], paths[1], nil
}

// selectInputKeys finds the item master and demand objects directly under prefix.
func selectInputKeys(prefix string, objects []storage.ObjectInfo) ([]string, error) {
	want := []string{
		storage.JoinKey(prefix, itemsObject),
		storage.JoinKey(prefix, demandObject),
	}
	present := make(map[string]bool, len(objects))
	for _, obj := range objects {
		present[strings.TrimPrefix(obj.Key, "/")] = true
	}
	for _, key := range want {
		if !present[key] {
			return nil, fmt.Errorf("object %s not found under prefix %s", key, prefix)
		}
	}
	return want, nil
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.Trim(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}
