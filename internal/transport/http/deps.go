package http

import (
	"github.com/task-tracker-api/internal/application/auth"
	"github.com/task-tracker-api/internal/application/otp"
	"github.com/task-tracker-api/internal/application/task"
	appmiddleware "github.com/task-tracker-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// Deps holds the services and shared infrastructure the router wires into handlers.
type Deps struct {
	OTP      otp.Service
	Auth     auth.Service
	Tasks    task.Service
	Verifier appmiddleware.TokenVerifier
	// Limiter guards the public OTP and credential endpoints. NewRouter
	// builds one when nil; the caller owns Stop either way.
	Limiter   *appmiddleware.RateLimiter
	Log       *zap.Logger
	LocalMode bool
}
