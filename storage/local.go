package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
)

// localBackend 把文件写到 uploadDir 下，对外暴露为 publicPrefix/<name>
type localBackend struct {
	uploadDir    string
	publicPrefix string
}

func newLocalBackend(cfg config.LocalStorageConfig) (*localBackend, error) {
	dir := cfg.UploadDir
	if dir == "" {
		dir = constant.DefaultUploadDir
	}
	prefix := strings.TrimRight(cfg.PublicPrefix, "/")
	if prefix == "" {
		prefix = constant.DefaultPublicPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录 %s 失败: %w", dir, err)
	}
	return &localBackend{uploadDir: dir, publicPrefix: prefix}, nil
}

func (b *localBackend) put(_ context.Context, key string, data []byte, _ string) (string, error) {
	name := filepath.Base(key)
	if err := os.WriteFile(filepath.Join(b.uploadDir, name), data, 0o644); err != nil {
		return "", err
	}
	return b.publicPrefix + "/" + name, nil
}

func (b *localBackend) delete(_ context.Context, path string) error {
	full, ok := b.resolve(path)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件 %s 失败: %w", path, err)
	}
	return nil
}

// resolve 把 web 路径映射回磁盘路径；不属于本存储的路径返回 false
func (b *localBackend) resolve(path string) (string, bool) {
	rest, found := strings.CutPrefix(path, b.publicPrefix+"/")
	if !found || rest == "" {
		return "", false
	}
	return filepath.Join(b.uploadDir, filepath.Base(rest)), true
}
