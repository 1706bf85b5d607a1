package user

import (
	"context"

	"github.com/startuplab/backend/core"
)

type serviceMock struct {
	*service
}

// NewServiceMock returns a Service that sends password reset emails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, verifier IdentityVerifier, conf *core.Config) Service {
	return &serviceMock{
		service: NewService(repo, mailSvc, verifier, conf, nil).(*service),
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken exposes the password reset token of usr to tests.
func MakeResetToken(conf *core.Config, usr User) (string, error) {
	return newTokenGenerator(conf).makeToken(usr)
}
