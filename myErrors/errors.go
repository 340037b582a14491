package myErrors

import "errors"

// ErrCacheMiss 表示在缓存层未找到对应的键值
var ErrCacheMiss = errors.New("cache: key not found (miss)")

// ErrMissingMainFile 创建作品时未携带主图 (或文件名为空)
var ErrMissingMainFile = errors.New("submission: main image file is required")

// ErrInvalidImage 上传内容无法识别为受支持的图片
var ErrInvalidImage = errors.New("storage: uploaded file is not a supported image")

// ErrStorage 文件写入或缩略图生成失败
var ErrStorage = errors.New("storage: write failed")

// ErrInvalidInput 表单字段不合法 (如标题为空、类型/分类取值越界)
var ErrInvalidInput = errors.New("submission: invalid input")
