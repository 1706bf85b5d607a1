// Package googlesvc verifies Google sign-in ID tokens.
package googlesvc

import (
	"context"

	"google.golang.org/api/idtoken"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type Verifier struct {
	clientID string
	validate validateFunc
	logger   core.Logger
}

var _ user.IdentityVerifier = (*Verifier)(nil)

// NewVerifier returns nil when no Google client ID is configured, which disables Google sign-in.
func NewVerifier(conf *core.Config, logger core.Logger) user.IdentityVerifier {
	if conf.GoogleClientID == "" {
		return nil
	}
	return &Verifier{clientID: conf.GoogleClientID, validate: idtoken.Validate, logger: logger}
}

func (v *Verifier) VerifyGoogleToken(ctx context.Context, token string) (user.GoogleIdentity, error) {
	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		if v.logger != nil {
			v.logger.Debug("google token rejected", err)
		}
		return user.GoogleIdentity{}, user.ErrInvalidGoogleToken
	}
	return identityFromPayload(payload), nil
}

func identityFromPayload(p *idtoken.Payload) user.GoogleIdentity {
	identity := user.GoogleIdentity{Subject: p.Subject}
	if email, ok := p.Claims["email"].(string); ok {
		identity.Email = email
	}
	switch verified := p.Claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = verified
	case string:
		identity.EmailVerified = verified == "true"
	}
	if name, ok := p.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity
}
