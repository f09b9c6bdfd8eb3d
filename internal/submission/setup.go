package submission

import (
	"fmt"

	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"gorm.io/gorm"
)

// MigrateDB 确保 submissions 表存在。
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Submission{}); err != nil {
		return fmt.Errorf("无法迁移submissions表: %w", err)
	}
	logger.Info("Submission数据库表迁移成功。")
	return nil
}
