package main

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/service"
)

// img2img 作品随机使用的参考图布局，new 的数量与生成的参考图数量一致
var refLayouts = []struct {
	layout string
	files  int
}{
	{`["new"]`, 1},
	{`["new","new"]`, 2},
	{`["new","placeholder","new"]`, 2},
	{`["placeholder","new"]`, 1},
}

// Seed 通过 SubmissionService 生成 numItems 个随机作品
func Seed(ctx context.Context, submissionSvc service.SubmissionService, logger *zap.Logger, numItems int) {
	logger.Info("开始填充测试数据 (通过服务层)...", zap.Int("数量", numItems))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4)

	for i := 0; i < numItems; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(itemIndex int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			mainFile, err := fakeUpload("main.png", gofakeit.ImagePng(gofakeit.Number(400, 1200), gofakeit.Number(400, 1200)))
			if err != nil {
				logger.Error("生成主图失败", zap.Error(err))
				return
			}

			form, refs, err := fakeSubmission()
			if err != nil {
				logger.Error("生成参考图失败", zap.Error(err))
				return
			}

			img, err := submissionSvc.Create(ctx, mainFile, form, refs)
			if err != nil {
				logger.Error(fmt.Sprintf("创建作品 %d/%d 失败", itemIndex+1, numItems), zap.Error(err), zap.String("title", form.Title))
				return
			}
			logger.Info(fmt.Sprintf("成功创建作品 %d/%d", itemIndex+1, numItems),
				zap.Uint64("imageID", img.ID),
				zap.String("type", string(img.Kind)),
				zap.Int("refs", len(img.ReferenceSlots)))
		}(i)
	}

	wg.Wait()
	logger.Info("测试数据填充完毕 (通过服务层)。")
}

func fakeSubmission() (*dto.SubmissionForm, []*multipart.FileHeader, error) {
	status := enums.Pending
	if gofakeit.Number(0, 9) < 7 {
		status = enums.Approved
	}
	category := entities.CategoryGallery
	if gofakeit.Number(0, 4) == 0 {
		category = entities.CategoryTemplate
	}

	tags := make([]string, 0, 4)
	for i := gofakeit.Number(1, 4); i > 0; i-- {
		tags = append(tags, strings.ToLower(gofakeit.RandomString([]string{gofakeit.Animal(), gofakeit.Color(), gofakeit.HipsterWord()})))
	}

	form := &dto.SubmissionForm{
		Title:       gofakeit.HipsterSentence(gofakeit.Number(2, 6)),
		Author:      gofakeit.Username(),
		Prompt:      gofakeit.Sentence(gofakeit.Number(8, 30)),
		Description: gofakeit.Paragraph(1, 2, 12, " "),
		Kind:        entities.KindTxt2Img,
		Category:    category,
		Status:      &status,
		Tags:        strings.Join(tags, ","),
	}
	if !gofakeit.Bool() {
		return form, nil, nil
	}

	layout := refLayouts[gofakeit.Number(0, len(refLayouts)-1)]
	form.Kind = entities.KindImg2Img
	form.RefLayout = layout.layout
	refs := make([]*multipart.FileHeader, 0, layout.files)
	for i := 0; i < layout.files; i++ {
		fh, err := fakeUpload(fmt.Sprintf("ref_%d.jpg", i), gofakeit.ImageJpeg(320, 320))
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, fh)
	}
	return form, refs, nil
}

// fakeUpload 把内存中的图片包装成 multipart 上传文件，与 HTTP 上传走同一条服务层路径
func fakeUpload(filename string, data []byte) (*multipart.FileHeader, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		return nil, err
	}
	return form.File["file"][0], nil
}
