package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eduflash/core/internal/config"
	"github.com/eduflash/core/internal/modules/backup"
	pkgcron "github.com/eduflash/core/internal/pkg/cron"
	sessionpkg "github.com/eduflash/core/internal/pkg/session"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, cfg *config.AppConfig, backupSvc *backup.Service, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "remove expired and revoked user sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := sessionpkg.CleanupExpired(db)
			if err != nil {
				cronLogger.Warn("session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("session cleanup removed %d rows", n))
			return nil
		},
	})

	if cfg.Backup.Enable {
		sched.Register(pkgcron.Job{
			Name:        "auto_backup",
			Description: "back up the database daily",
			Interval:    24 * time.Hour,
			Fn: func(ctx context.Context) error {
				if err := backupSvc.Run(ctx); err != nil {
					cronLogger.Warn("backup failed", zap.Error(err))
					return err
				}
				return nil
			},
		})
	}
}
