package submission

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SlpAus/contact-form-backend/internal/telemetry"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	// formOverhead 是除图片以外的表单字段和multipart边界预留的字节数
	formOverhead = 1 << 20
	// multipartMemory 以内的文件保存在内存中，超出部分落到临时文件
	multipartMemory = 8 << 20

	imageField = "image"
)

// FileTooLargeMessage 是附件超出大小限制时返回给客户端的文案。
const FileTooLargeMessage = "File too large"

// errFileTooLarge 表示附件超出传输层限制，在进入处理流程之前就被拒绝。
var errFileTooLarge = errors.New("file too large")

// Handler 暴露联系表单相关的HTTP接口。
type Handler struct {
	svc           *Service
	metrics       telemetry.Recorder
	maxImageBytes int64
}

func NewHandler(svc *Service, metrics telemetry.Recorder, maxImageBytes int64) *Handler {
	return &Handler{svc: svc, metrics: metrics, maxImageBytes: maxImageBytes}
}

// CreateSubmission 处理 POST /api/contact。
func (h *Handler) CreateSubmission(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+formOverhead)

	image, err := h.readForm(c)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			h.metrics.RecordError(LabelUploadLimit)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": FileTooLargeMessage})
			return
		}
		h.metrics.RecordError(LabelInvalidForm)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data: " + err.Error()})
		return
	}

	result, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Message: c.PostForm("message"),
		Image:   image,
	})
	if errors.Is(err, ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ValidationMessage})
		return
	}
	if err != nil {
		logger.Error("处理联系表单提交失败: %v", err)
		h.metrics.RecordError(LabelContactSubmission)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"id":       result.ID,
		"imageUrl": result.ImageURL,
	})
}

// ListSubmissions 处理 GET /api/submissions。
func (h *Handler) ListSubmissions(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		logger.Error("查询联系表单记录失败: %v", err)
		h.metrics.RecordError(LabelFetchSubmissions)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// readForm 解析请求体并读取可选的图片附件。没有附件时返回 nil, nil。
func (h *Handler) readForm(c *gin.Context) (*Attachment, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isBodyTooLarge(err) {
			return nil, errFileTooLarge
		}
		return nil, err
	}

	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > h.maxImageBytes {
		return nil, errFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Attachment{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
