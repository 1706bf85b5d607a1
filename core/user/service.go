package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("utilisateur introuvable")
	ErrEmailExists        = errors.New("un compte existe déjà avec cette adresse email")
	ErrFaceNotRecognized  = errors.New("visage non reconnu")
	ErrGoogleUnavailable  = errors.New("la connexion Google n'est pas configurée")
	ErrGoogleEmailMissing = errors.New("le compte Google n'a pas d'adresse email vérifiée")
	ErrInvalidGoogleToken = errors.New("jeton Google invalide")
	errInvalidResetLink   = errors.New("le lien de réinitialisation est invalide ou a expiré")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		// QueryFaceUsers returns the active users who enrolled a face descriptor.
		QueryFaceUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		SetUserPlan(ctx context.Context, id, planID string, exec ...core.DBExecutor) error
		CountUsersByPlan(ctx context.Context, exec ...core.DBExecutor) (map[string]int, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	// GoogleIdentity is the verified content of a Google ID token.
	GoogleIdentity struct {
		Subject       string
		Email         string
		EmailVerified bool
		Name          string
	}

	// IdentityVerifier verifies Google ID tokens.
	IdentityVerifier interface {
		VerifyGoogleToken(ctx context.Context, token string) (GoogleIdentity, error)
	}

	Service interface {
		CheckUniqueness(email string, excludedUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error)
		AdminUpdate(ctx context.Context, usr User, au AdminUpdateUser) (User, error)
		SetPlan(ctx context.Context, usr User, planID string) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		SetFaceDescriptor(ctx context.Context, usr User, d Descriptor) (User, error)
		ClearFaceDescriptor(ctx context.Context, usr User) (User, error)
		MatchFace(ctx context.Context, d Descriptor, email string) (User, error)
		LoginWithGoogle(ctx context.Context, idToken string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		CountByPlan(ctx context.Context) (map[string]int, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		verifier IdentityVerifier
		tokens   tokenGenerator
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, verifier IdentityVerifier, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		verifier: verifier,
		tokens:   newTokenGenerator(conf),
		logger:   logger,
	}
}

func (svc *service) CheckUniqueness(email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excludedUsers); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := core.Now()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Plan:      nu.Plan,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleUser
	}
	if usr.Plan == "" {
		usr.Plan = plan.Free
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	usr.Name = up.Name
	usr.Email = up.Email
	usr.UpdatedAt = core.Now()
	if up.Password != "" {
		if err := usr.SetPassword(up.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) AdminUpdate(ctx context.Context, usr User, au AdminUpdateUser) (User, error) {
	usr.Name = au.Name
	usr.Email = au.Email
	usr.Role = au.Role
	usr.Plan = au.Plan
	if au.IsActive != nil {
		usr.IsActive = *au.IsActive
	}
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPlan(ctx context.Context, usr User, planID string) (User, error) {
	if !plan.Valid(planID) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "plan", Error: planText})
	}
	usr.Plan = planID
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetFaceDescriptor(ctx context.Context, usr User, d Descriptor) (User, error) {
	if len(d) != DescriptorLen {
		return User{}, core.NewValidationError(nil, core.FieldError{
			Field: "descriptor",
			Error: fmt.Sprintf("le descripteur doit contenir %d valeurs", DescriptorLen),
		})
	}
	usr.FaceDescriptor = d
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) ClearFaceDescriptor(ctx context.Context, usr User) (User, error) {
	usr.FaceDescriptor = nil
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

// MatchFace finds the user whose face descriptor matches d.
// When email is provided only that user is considered; otherwise the closest enrolled face wins.
func (svc *service) MatchFace(ctx context.Context, d Descriptor, email string) (User, error) {
	if len(d) != DescriptorLen {
		return User{}, ErrFaceNotRecognized
	}

	if email = core.CleanString(email, true /* lower */); email != "" {
		usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
		if err != nil {
			if core.IsNotFound(err) {
				return User{}, ErrFaceNotRecognized
			}
			return User{}, errors.Wrap(err, "finding user by email")
		}
		if !d.Matches(usr.FaceDescriptor) {
			return User{}, ErrFaceNotRecognized
		}
		return usr, nil
	}

	candidates, err := svc.repo.QueryFaceUsers(ctx)
	if err != nil {
		return User{}, errors.Wrap(err, "querying enrolled faces")
	}
	usr, ok := closestMatch(d, candidates)
	if !ok {
		return User{}, ErrFaceNotRecognized
	}
	return usr, nil
}

// LoginWithGoogle returns the user linked to the Google account of idToken.
// Accounts are linked by email on first sign-in, or created when no account exists.
func (svc *service) LoginWithGoogle(ctx context.Context, idToken string) (User, error) {
	if svc.verifier == nil {
		return User{}, ErrGoogleUnavailable
	}
	identity, err := svc.verifier.VerifyGoogleToken(ctx, idToken)
	if err != nil {
		return User{}, err
	}
	email := core.CleanString(identity.Email, true /* lower */)
	if email == "" || !identity.EmailVerified {
		return User{}, ErrGoogleEmailMissing
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{GoogleID: identity.Subject})
	if err == nil {
		return usr, nil
	} else if !core.IsNotFound(err) {
		return User{}, errors.Wrap(err, "finding user by google ID")
	}

	usr, err = svc.repo.GetUser(ctx, GetFilter{Email: email})
	if err == nil {
		usr.GoogleID = identity.Subject
		usr.UpdatedAt = core.Now()
		return svc.repo.UpdateUser(ctx, usr)
	} else if !core.IsNotFound(err) {
		return User{}, errors.Wrap(err, "finding user by email")
	}

	name := core.CleanString(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := core.Now()
	return svc.repo.CreateUser(ctx, User{
		Name:      name,
		Email:     email,
		Role:      RoleUser,
		Plan:      plan.Free,
		IsActive:  true,
		GoogleID:  identity.Subject,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Error("making password reset token", err, usr)
		}
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Réinitialisation de votre mot de passe",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalid := core.NewValidationError(errInvalidResetLink)

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return invalid
	}
	_, err = svc.SetPassword(ctx, usr, data.Password)
	return err
}

func (svc *service) CountByPlan(ctx context.Context) (map[string]int, error) {
	return svc.repo.CountUsersByPlan(ctx)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids)
	return err
}
