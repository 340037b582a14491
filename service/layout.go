package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/models/entities"
)

type slotTokenKind int

const (
	tokenInvalid slotTokenKind = iota
	tokenNew
	tokenPlaceholder
	tokenExisting
)

// slotToken 布局描述中的一项，其下标即目标 position
type slotToken struct {
	kind   slotTokenKind
	slotID uint64
	raw    string
}

// parseLayout 解析 JSON 字符串数组形式的布局描述。
// 整体不是 JSON 数组时返回错误；单项无法识别时保留为 tokenInvalid，下标不变。
func parseLayout(raw string) ([]slotToken, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("布局描述不是 JSON 数组: %w", err)
	}

	tokens := make([]slotToken, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			tokens[i] = slotToken{kind: tokenInvalid, raw: string(item)}
			continue
		}
		tokens[i] = parseSlotToken(strings.TrimSpace(s))
	}
	return tokens, nil
}

func parseSlotToken(s string) slotToken {
	switch {
	case s == constant.LayoutTokenNew:
		return slotToken{kind: tokenNew, raw: s}
	case s == constant.LayoutTokenPlaceholder:
		return slotToken{kind: tokenPlaceholder, raw: s}
	case strings.HasPrefix(s, constant.LayoutTokenExistingPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(s, constant.LayoutTokenExistingPrefix), 10, 64)
		if err != nil {
			return slotToken{kind: tokenInvalid, raw: s}
		}
		return slotToken{kind: tokenExisting, slotID: id, raw: s}
	default:
		return slotToken{kind: tokenInvalid, raw: s}
	}
}

// refFileQueue 按 new token 出现的顺序依次消费上传的参考图。
// 每个 new 只消费一项；空项 (无文件名) 同样被消费，对应位置不产生槽位。
type refFileQueue struct {
	files []*multipart.FileHeader
	next  int
}

// pop 返回下一项；exhausted 为 true 表示文件已用完，file 为 nil 且未用完表示该项为空
func (q *refFileQueue) pop() (file *multipart.FileHeader, exhausted bool) {
	if q.next >= len(q.files) {
		return nil, true
	}
	f := q.files[q.next]
	q.next++
	if f == nil || f.Filename == "" {
		return nil, false
	}
	return f, false
}

// reconcileLayout 让作品的参考图槽位与布局描述一致。
//   - new: 取下一张上传文件写入新槽位；文件已用完或写入失败时跳过该位置。
//   - placeholder: 该位置已有未被认领的占位槽位则复用，否则新建。
//   - existing:<id>: 槽位属于本作品时移动到该位置，否则跳过。
//   - 布局未提及的旧槽位保持相对顺序，排到布局末尾之后，保证 position 唯一。
//
// 布局描述整体无法解析时只记录日志，不改动任何槽位。
// 写入成功的文件路径追加到 written，供调用方在事务失败时清理。
func (s *submissionService) reconcileLayout(ctx context.Context, tx *gorm.DB, imageID uint64, rawLayout string, files []*multipart.FileHeader, written *[]string) error {
	tokens, err := parseLayout(rawLayout)
	if err != nil {
		s.logger.Warn("参考图布局描述无法解析，已忽略", zap.Uint64("imageID", imageID), zap.String("layout", rawLayout), zap.Error(err))
		return nil
	}

	slots, err := s.slotRepo.ListByImage(ctx, tx, imageID)
	if err != nil {
		return fmt.Errorf("读取参考图槽位失败: %w", err)
	}
	byID := make(map[uint64]*entities.ReferenceSlot, len(slots))
	for _, slot := range slots {
		byID[slot.ID] = slot
	}

	// 被 existing token 点名的槽位不能被 placeholder 复用
	claimed := make(map[uint64]bool)
	for _, tok := range tokens {
		if tok.kind == tokenExisting {
			if _, ok := byID[tok.slotID]; ok {
				claimed[tok.slotID] = true
			}
		}
	}

	placed := make(map[uint64]bool, len(tokens))
	queue := &refFileQueue{files: files}

	for idx, tok := range tokens {
		switch tok.kind {
		case tokenNew:
			file, exhausted := queue.pop()
			if exhausted {
				s.logger.Warn("布局中的 new 没有对应的上传文件，跳过该位置", zap.Uint64("imageID", imageID), zap.Int("position", idx))
				continue
			}
			if file == nil {
				s.logger.Warn("布局中的 new 对应的上传项为空，跳过该位置", zap.Uint64("imageID", imageID), zap.Int("position", idx))
				continue
			}
			path, storeErr := s.storage.StoreReference(ctx, file)
			if storeErr != nil {
				s.logger.Error("写入参考图失败，跳过该位置", zap.Uint64("imageID", imageID), zap.Int("position", idx), zap.String("filename", file.Filename), zap.Error(storeErr))
				continue
			}
			*written = append(*written, path)
			slot := &entities.ReferenceSlot{ImageID: imageID, Position: idx, FilePath: path}
			if err := s.slotRepo.Create(ctx, tx, slot); err != nil {
				return fmt.Errorf("创建参考图槽位失败: %w", err)
			}
			placed[slot.ID] = true

		case tokenPlaceholder:
			if reuse := findReusablePlaceholder(slots, idx, claimed, placed); reuse != nil {
				placed[reuse.ID] = true
				continue
			}
			slot := &entities.ReferenceSlot{ImageID: imageID, Position: idx, IsPlaceholder: true}
			if err := s.slotRepo.Create(ctx, tx, slot); err != nil {
				return fmt.Errorf("创建占位槽位失败: %w", err)
			}
			placed[slot.ID] = true

		case tokenExisting:
			slot, ok := byID[tok.slotID]
			if !ok {
				s.logger.Warn("布局引用的槽位不存在或不属于该作品，已跳过", zap.Uint64("imageID", imageID), zap.Uint64("slotID", tok.slotID))
				continue
			}
			if placed[slot.ID] {
				s.logger.Warn("布局重复引用同一槽位，已跳过", zap.Uint64("imageID", imageID), zap.Uint64("slotID", slot.ID), zap.Int("position", idx))
				continue
			}
			if slot.Position != idx {
				if err := s.slotRepo.UpdatePosition(ctx, tx, slot.ID, idx); err != nil {
					return fmt.Errorf("移动参考图槽位失败: %w", err)
				}
				slot.Position = idx
			}
			placed[slot.ID] = true

		default:
			s.logger.Warn("无法识别的布局项，已跳过", zap.Uint64("imageID", imageID), zap.Int("position", idx), zap.String("token", tok.raw))
		}
	}

	next := len(tokens)
	for _, slot := range slots {
		if placed[slot.ID] {
			continue
		}
		if slot.Position != next {
			if err := s.slotRepo.UpdatePosition(ctx, tx, slot.ID, next); err != nil {
				return fmt.Errorf("移动未列入布局的槽位失败: %w", err)
			}
			slot.Position = next
		}
		next++
	}
	return nil
}

func findReusablePlaceholder(slots []*entities.ReferenceSlot, position int, claimed, placed map[uint64]bool) *entities.ReferenceSlot {
	for _, slot := range slots {
		if slot.IsPlaceholder && slot.Position == position && !claimed[slot.ID] && !placed[slot.ID] {
			return slot
		}
	}
	return nil
}

// appendRefs 没有布局描述时，把上传的参考图依次追加到 start 开始的位置。
// position 按文件在批次中的下标计算；单个文件写入失败只跳过该文件。
func (s *submissionService) appendRefs(ctx context.Context, tx *gorm.DB, imageID uint64, files []*multipart.FileHeader, start int, written *[]string) error {
	for i, file := range files {
		if file == nil || file.Filename == "" {
			continue
		}
		path, err := s.storage.StoreReference(ctx, file)
		if err != nil {
			s.logger.Error("写入参考图失败，已跳过", zap.Uint64("imageID", imageID), zap.String("filename", file.Filename), zap.Error(err))
			continue
		}
		*written = append(*written, path)
		slot := &entities.ReferenceSlot{ImageID: imageID, Position: start + i, FilePath: path}
		if err := s.slotRepo.Create(ctx, tx, slot); err != nil {
			return fmt.Errorf("创建参考图槽位失败: %w", err)
		}
	}
	return nil
}
