package submission

import "time"

// Submission 是一条联系表单记录。创建后不会被修改或删除。
type Submission struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null" json:"email"`
	Message string `gorm:"type:text;not null" json:"message"`
	// ImageURL 仅在请求附带了图片时非空
	ImageURL  *string   `gorm:"column:image_url" json:"image_url"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Attachment 是随表单上传的单个文件。
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateInput 是创建提交的输入。
type CreateInput struct {
	Name    string
	Email   string
	Message string
	Image   *Attachment
}

// Validate 只检查三个必填字段是否非空，不做格式校验。
func (in CreateInput) Validate() error {
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return ErrValidation
	}
	return nil
}

// CreateResult 是创建成功后返回给调用方的结果。
type CreateResult struct {
	ID       uint
	ImageURL *string
}
