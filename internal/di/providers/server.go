package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/dropcircles/dropcircles-server/internal/api"
	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/config"
	"github.com/dropcircles/dropcircles-server/internal/logger"
	"github.com/dropcircles/dropcircles-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	apiServer *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := h.Server.Shutdown(ctx)
	h.apiServer.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Circles:   do.MustInvoke[*service.CircleService](i),
		Artifacts: do.MustInvoke[*service.ArtifactService](i),
		Delivery:  do.MustInvoke[*service.DeliveryService](i),
		Gate:      do.MustInvoke[*service.GateService](i),
		Waitlist:  do.MustInvoke[*service.WaitlistService](i),
		Feedback:  do.MustInvoke[*service.FeedbackService](i),
	}

	apiServer := api.NewServer(storeHandle.Store, services, tokens, log.Logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: server, apiServer: apiServer}, nil
}
