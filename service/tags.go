package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxTagNameLength 与 tags.name 列宽一致
const maxTagNameLength = 100

// ParseTagNames 解析标签串：全角逗号视同英文逗号，去空白、去重。
// 返回按名称排序的结果，集合语义与顺序无关。
func ParseTagNames(raw string) []string {
	raw = strings.ReplaceAll(raw, "，", ",")
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyTags 查找或创建每个标签并关联到作品，已存在的关联不会重复
func (s *submissionService) applyTags(ctx context.Context, tx *gorm.DB, imageID uint64, raw string) error {
	names := ParseTagNames(raw)
	if len(names) == 0 {
		return nil
	}

	tagIDs := make([]uint64, 0, len(names))
	for _, name := range names {
		if utf8.RuneCountInString(name) > maxTagNameLength {
			s.logger.Warn("标签名过长，已跳过", zap.Uint64("imageID", imageID), zap.String("tag", name))
			continue
		}
		tag, err := s.tagRepo.FindOrCreate(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("查找或创建标签 %q 失败: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	if err := s.tagRepo.Attach(ctx, tx, imageID, tagIDs); err != nil {
		return fmt.Errorf("关联标签失败: %w", err)
	}
	return nil
}

// cleanOrphanTags 逐个回收不再被引用的标签。
// 在主事务提交之后执行，每个标签独立处理，单个失败不影响其他标签。
// 不跟随请求 ctx 的取消，已提交的变更总能完成回收。
func (s *submissionService) cleanOrphanTags(ctx context.Context, tagIDs []uint64) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range tagIDs {
		deleted, err := s.tagRepo.DeleteIfOrphan(ctx, id)
		if err != nil {
			s.logger.Error("清理孤儿标签失败", zap.Uint64("tagID", id), zap.Error(err))
			continue
		}
		if deleted {
			s.logger.Info("已删除孤儿标签", zap.Uint64("tagID", id))
		}
	}
}
