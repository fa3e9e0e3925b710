// Package di provides dependency injection configuration for the DropCircles server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/config"
	"github.com/dropcircles/dropcircles-server/internal/di/providers"
	"github.com/dropcircles/dropcircles-server/internal/logger"
	"github.com/dropcircles/dropcircles-server/internal/notify"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/service"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideVaultStorage)
	do.Provide(injector, providers.ProvideStreamSigner)
	do.Provide(injector, providers.ProvidePlaybackGuard)
	do.Provide(injector, providers.ProvideMailer)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCircleService)
	do.Provide(injector, providers.ProvideArtifactService)
	do.Provide(injector, providers.ProvideDeliveryService)
	do.Provide(injector, providers.ProvideGateService)
	do.Provide(injector, providers.ProvideWaitlistService)
	do.Provide(injector, providers.ProvideFeedbackService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvideBackupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap invokes all providers so the server is fully wired before
// main blocks on the shutdown signal.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*vault.Storage](injector)
	_ = do.MustInvoke[*vault.Signer](injector)
	_ = do.MustInvoke[*playback.Guard](injector)
	_ = do.MustInvoke[notify.Mailer](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CircleService](injector)
	_ = do.MustInvoke[*service.ArtifactService](injector)
	_ = do.MustInvoke[*service.DeliveryService](injector)
	_ = do.MustInvoke[*service.GateService](injector)
	_ = do.MustInvoke[*service.WaitlistService](injector)
	_ = do.MustInvoke[*service.FeedbackService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.BackupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
