package middleware

import (
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	"github.com/aibekzh/fleet-dispatch/pkg/token"
)

type Middleware struct {
	verifier *token.Verifier
	log      logger.Logger
}

func NewMiddleware(verifier *token.Verifier, log logger.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		log:      log,
	}
}
