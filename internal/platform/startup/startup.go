// Package startup 把配置组装成运行时组件。
package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/contact-form-backend/internal/objectstore"
	"github.com/SlpAus/contact-form-backend/internal/platform/awsconf"
	"github.com/SlpAus/contact-form-backend/internal/platform/config"
	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/internal/platform/health"
	"github.com/SlpAus/contact-form-backend/internal/submission"
	"github.com/SlpAus/contact-form-backend/internal/telemetry"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PrepareDatabase 只创建连接池，不连接数据库，数据库不可达时服务照常启动。
func PrepareDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return database.Open(cfg)
}

// MigrationHook 返回在第一次探测成功后执行的建表动作。未开启 autoMigrate 时返回 nil。
func MigrationHook(cfg config.DatabaseConfig, db *gorm.DB) health.ReadyFunc {
	if !cfg.AutoMigrate {
		return nil
	}
	return func(ctx context.Context) error {
		return submission.MigrateDB(db.WithContext(ctx))
	}
}

// NewUploader 创建上传联系表单附件用的 S3 客户端。
func NewUploader(ctx context.Context, cfg config.StorageConfig) (*objectstore.S3Uploader, error) {
	awsCfg, err := awsconf.Load(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	logger.Info("对象存储: bucket=%s region=%s", cfg.Bucket, cfg.Region)
	return objectstore.NewS3UploaderFromConfig(awsCfg, cfg.Bucket, cfg.Endpoint, cfg.PublicBaseURL), nil
}

// NewSink 按配置创建指标输出端。返回的 close 用于停机时释放连接，可能为 nil。
func NewSink(ctx context.Context, cfg config.TelemetryConfig) (telemetry.Sink, func() error, error) {
	switch cfg.Sink {
	case config.SinkCloudWatch:
		awsCfg, err := awsconf.Load(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("指标输出: CloudWatch (region=%s)", cfg.Region)
		return telemetry.NewCloudWatchSinkFromConfig(awsCfg), nil, nil
	case config.SinkRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("指标输出: Redis (%s)", cfg.Redis.Address)
		return telemetry.NewRedisSink(rdb), rdb.Close, nil
	case config.SinkLog:
		logger.Info("指标输出: 日志")
		return telemetry.LogSink{}, nil, nil
	case config.SinkNone:
		logger.Warn("指标输出已关闭")
		return telemetry.NopSink{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("未知的指标输出: %q", cfg.Sink)
	}
}
