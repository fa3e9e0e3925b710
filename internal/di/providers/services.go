package providers

import (
	"github.com/samber/do/v2"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/config"
	"github.com/dropcircles/dropcircles-server/internal/logger"
	"github.com/dropcircles/dropcircles-server/internal/notify"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/service"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// ProvideSessionService provides the artist session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokens, log.Logger), nil
}

// ProvideAuthService provides the registration and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, sessions, log.Logger), nil
}

// ProvideCircleService provides circle management.
func ProvideCircleService(i do.Injector) (*service.CircleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	vaultStorage := do.MustInvoke[*vault.Storage](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCircleService(
		storeHandle.Store,
		vaultStorage,
		cfg.Gate.MaxCirclesPerArtist,
		cfg.Gate.DefaultCapacity,
		log.Logger,
	), nil
}

// ProvideArtifactService provides artifact upload and management.
func ProvideArtifactService(i do.Injector) (*service.ArtifactService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	vaultStorage := do.MustInvoke[*vault.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArtifactService(storeHandle.Store, vaultStorage, log.Logger), nil
}

// ProvideDeliveryService provides signed stream URL issuance and redemption.
func ProvideDeliveryService(i do.Injector) (*service.DeliveryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	signer := do.MustInvoke[*vault.Signer](i)
	vaultStorage := do.MustInvoke[*vault.Storage](i)
	guard := do.MustInvoke[*playback.Guard](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	baseURL := cfg.Server.PublicURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Server.Port
	}

	return service.NewDeliveryService(storeHandle.Store, signer, vaultStorage, guard, baseURL, log.Logger), nil
}

// ProvideGateService provides the access gate.
func ProvideGateService(i do.Injector) (*service.GateService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	delivery := do.MustInvoke[*service.DeliveryService](i)
	guard := do.MustInvoke[*playback.Guard](i)
	mailer := do.MustInvoke[notify.Mailer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGateService(storeHandle.Store, tokens, delivery, guard, mailer, log.Logger), nil
}

// ProvideWaitlistService provides waitlist signups.
func ProvideWaitlistService(i do.Injector) (*service.WaitlistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWaitlistService(storeHandle.Store, log.Logger), nil
}

// ProvideFeedbackService provides fan feedback collection and reporting.
func ProvideFeedbackService(i do.Injector) (*service.FeedbackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedbackService(storeHandle.Store, log.Logger), nil
}
