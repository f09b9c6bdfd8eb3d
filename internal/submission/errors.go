package submission

import "errors"

// 错误类别标签，作为 ErrorCount 指标的 ErrorType 维度。
const (
	LabelContactSubmission = "ContactSubmissionError"
	LabelFetchSubmissions  = "FetchSubmissionsError"
	LabelUploadLimit       = "UploadLimitError"
	LabelInvalidForm       = "InvalidFormError"
)

// ValidationMessage 是缺少必填字段时返回给客户端的固定文案。
const ValidationMessage = "Name, email, and message are required."

// ErrValidation 表示缺少必填字段，由客户端引起。
var ErrValidation = errors.New(ValidationMessage)

// StoreError 表示数据库不可达或语句执行失败。
// Error() 直接返回底层错误信息，它会原样返回给客户端。
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// UploadError 表示对象存储上传失败，此时不会再写数据库。
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string { return e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }
