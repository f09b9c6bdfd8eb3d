// Package objectstore 把联系表单附带的图片上传到对象存储并返回公开URL。
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// KeyPrefix 是所有联系表单图片的对象键前缀。
const KeyPrefix = "contacts/"

// Uploader 是请求处理流程依赖的上传接口。
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (publicURL string, err error)
}

// PutObjectAPI 是 S3Uploader 用到的 s3.Client 方法子集。
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ContactKey 生成对象键: contacts/<毫秒时间戳>-<原始文件名>。
// 同一毫秒内同名文件会相互覆盖，这是可以接受的。
func ContactKey(now time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", KeyPrefix, now.UnixMilli(), filename)
}

// S3Uploader 把对象写入一个 S3（或兼容）存储桶。
type S3Uploader struct {
	client        PutObjectAPI
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3Uploader 创建上传器。publicBaseURL 为空时使用标准的 virtual-hosted 风格URL。
func NewS3Uploader(client PutObjectAPI, bucket, region, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewS3UploaderFromConfig 用 aws.Config 构造真实的 s3 客户端。
// endpoint 非空时（MinIO、LocalStack 等）使用 path-style 访问。
func NewS3UploaderFromConfig(cfg aws.Config, bucket, endpoint, publicBaseURL string) *S3Uploader {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Uploader(client, bucket, cfg.Region, publicBaseURL)
}

// PublicURL 由存储桶、区域和键确定性地拼出公开访问地址。
func (u *S3Uploader) PublicURL(key string) string {
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// Upload 同步上传，成功后返回公开URL。
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 PutObject %s/%s: %w", u.bucket, key, err)
	}
	return u.PublicURL(key), nil
}
