package api

import (
	"github.com/dropcircles/dropcircles-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth      *service.AuthService
	Circles   *service.CircleService
	Artifacts *service.ArtifactService
	Delivery  *service.DeliveryService
	Gate      *service.GateService
	Waitlist  *service.WaitlistService
	Feedback  *service.FeedbackService
}
