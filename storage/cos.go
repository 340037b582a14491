package storage

import (
	"bytes"
	"context"

	"github.com/Xushengqwer/gallery_service/dependencies"
)

// cosBackend 把文件写入腾讯云 COS，返回对象的公开访问 URL
type cosBackend struct {
	client dependencies.COSClientInterface
}

func (b *cosBackend) put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return b.client.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

func (b *cosBackend) delete(ctx context.Context, path string) error {
	key, ok := b.client.ObjectKeyFromURL(path)
	if !ok {
		return nil
	}
	return b.client.DeleteObject(ctx, key)
}
