package providers

import (
	"github.com/samber/do/v2"

	"github.com/dropcircles/dropcircles-server/internal/config"
	"github.com/dropcircles/dropcircles-server/internal/logger"
	"github.com/dropcircles/dropcircles-server/internal/notify"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// ProvideVaultStorage provides the artifact file store.
func ProvideVaultStorage(i do.Injector) (*vault.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := vault.NewStorage(cfg.Vault.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Vault storage initialized", "path", cfg.Vault.BasePath)

	return storage, nil
}

// ProvideStreamSigner provides the stream token signer.
func ProvideStreamSigner(i do.Injector) (*vault.Signer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return vault.NewSigner([]byte(authKey), cfg.Vault.SignedURLTTL)
}

// ProvidePlaybackGuard provides the shared playback lockout tracker.
func ProvidePlaybackGuard(i do.Injector) (*playback.Guard, error) {
	return playback.NewGuard(), nil
}

// ProvideMailer provides outbound email. Without SMTP configuration,
// notifications are logged instead of sent.
func ProvideMailer(i do.Injector) (notify.Mailer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.SMTP.Host == "" {
		log.Info("SMTP not configured, email notifications will be logged only")
		return notify.NewLogMailer(log.Logger), nil
	}

	mailer, err := notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	if err != nil {
		return nil, err
	}

	log.Info("SMTP mailer configured", "host", cfg.SMTP.Host, "from", cfg.SMTP.From)

	return mailer, nil
}
