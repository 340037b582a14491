package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// checkDimensions 只读取图片头部的宽高，像素数超过 maxPixels 时返回错误
func checkDimensions(data []byte, maxPixels int64) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("读取图片尺寸失败: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("图片尺寸无效: %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return fmt.Errorf("图片尺寸过大: %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

// makeThumbnail 解码图片并等比缩放到最长边不超过 maxEdge，统一编码为 JPEG。
// 原图本身小于 maxEdge 时不放大。
func makeThumbnail(data []byte, maxEdge, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG 没有透明通道，先铺白底
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("编码缩略图失败: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		h := height * maxEdge / width
		if h < 1 {
			h = 1
		}
		return maxEdge, h
	}
	w := width * maxEdge / height
	if w < 1 {
		w = 1
	}
	return w, maxEdge
}
