package submission

import (
	"context"
	"time"

	"github.com/SlpAus/contact-form-backend/internal/objectstore"
)

// Service 编排一次提交的处理：校验 -> （可选）上传图片 -> 写库。
// 上传成功但写库失败时不会删除已上传的对象。
type Service struct {
	repo     Repository
	uploader objectstore.Uploader
	now      func() time.Time
}

func NewService(repo Repository, uploader objectstore.Uploader) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		now:      time.Now,
	}
}

// Create 校验失败时返回 ErrValidation，且不会调用任何外部服务。
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var imageURL *string
	if in.Image != nil {
		key := objectstore.ContactKey(s.now(), in.Image.Filename)
		url, err := s.uploader.Upload(ctx, key, in.Image.Data, in.Image.ContentType)
		if err != nil {
			return nil, &UploadError{Key: key, Err: err}
		}
		imageURL = &url
	}

	record := &Submission{
		Name:     in.Name,
		Email:    in.Email,
		Message:  in.Message,
		ImageURL: imageURL,
	}
	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}

	return &CreateResult{ID: id, ImageURL: imageURL}, nil
}

// List 返回全部记录，最新的在前。表为空时返回空切片而不是nil。
func (s *Service) List(ctx context.Context) ([]Submission, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	if rows == nil {
		rows = []Submission{}
	}
	return rows, nil
}
