package providers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/dropcircles/dropcircles-server/internal/backup"
	"github.com/dropcircles/dropcircles-server/internal/config"
	"github.com/dropcircles/dropcircles-server/internal/logger"
)

const backupKeep = 7

// SessionCleanupJob runs periodic expired-session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return &SessionCleanupJob{cancel: cancel}, nil
}

// BackupJob runs daily database snapshots.
type BackupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *BackupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideBackupJob provides the periodic database snapshot job.
func ProvideBackupJob(i do.Injector) (*BackupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc, err := backup.NewService(
		storeHandle.Store,
		filepath.Join(cfg.Data.BasePath, "backups"),
		backupKeep,
		log.Logger,
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := svc.Run(); err != nil {
					log.Warn("Database snapshot failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return &BackupJob{cancel: cancel}, nil
}
