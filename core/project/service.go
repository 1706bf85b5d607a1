package project

import (
	"context"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("projet introuvable")
	ErrForbidden          = core.NewPermissionError("vous n'avez pas les droits nécessaires sur ce projet")
	ErrMemberNotFound     = core.NewNotFoundError("membre introuvable")
	ErrInvitationNotFound = core.NewNotFoundError("invitation introuvable")
	ErrAlreadyMember      = errors.New("cette personne fait déjà partie de l'équipe")
	ErrOwnerIsMember      = errors.New("le propriétaire fait déjà partie du projet")
	errOwnerOnlyAdmin     = core.NewPermissionError("seul le propriétaire peut gérer les administrateurs du projet")

	roleLabels = map[string]string{
		RoleOwner:  "propriétaire",
		RoleAdmin:  "administrateur",
		RoleMember: "membre",
		RoleViewer: "lecteur",
	}
)

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project, exec ...core.DBExecutor) (Project, error)
		// GetProject returns the project along with the plan of its owner.
		GetProject(ctx context.Context, id string, exec ...core.DBExecutor) (Project, error)
		// QueryProjects returns the projects owned by the user or shared with them through an active membership.
		QueryProjects(ctx context.Context, userID, email string, exec ...core.DBExecutor) ([]Project, error)
		CountOwnedProjects(ctx context.Context, ownerID string, exec ...core.DBExecutor) (int, error)
		CountProjects(ctx context.Context, exec ...core.DBExecutor) (int, error)
		UpdateProject(ctx context.Context, p Project, exec ...core.DBExecutor) (Project, error)
		DeleteProject(ctx context.Context, id string, exec ...core.DBExecutor) error

		// GetActiveMembership returns the most recent active membership matching userID or email.
		GetActiveMembership(ctx context.Context, projectID, userID, email string, exec ...core.DBExecutor) (TeamMember, error)
		QueryTeamMembers(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]TeamMember, error)
		CountTeamMembers(ctx context.Context, projectID string, exec ...core.DBExecutor) (int, error)
		GetTeamMember(ctx context.Context, id string, exec ...core.DBExecutor) (TeamMember, error)
		FindTeamMemberByEmail(ctx context.Context, projectID, email string, exec ...core.DBExecutor) (TeamMember, error)
		CreateTeamMember(ctx context.Context, m TeamMember, exec ...core.DBExecutor) (TeamMember, error)
		UpdateTeamMember(ctx context.Context, m TeamMember, exec ...core.DBExecutor) (TeamMember, error)
		DeleteTeamMember(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QueryInvitations returns the pending invitations sent to email.
		QueryInvitations(ctx context.Context, email string, exec ...core.DBExecutor) ([]Invitation, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService) *Service {
	return &Service{db: db, repo: repo, mailSvc: mailSvc}
}

// ResolveAccess determines the role of usr on the project.
// The owner passes every allow-list. Other users need an active membership whose role is in roles
// (an empty allow-list accepts any role).
func (svc *Service) ResolveAccess(ctx context.Context, usr user.User, projectID string, roles ...string) (Access, error) {
	p, err := svc.repo.GetProject(ctx, projectID)
	if err != nil {
		return Access{}, err
	}
	if p.OwnerID == usr.ID {
		return Access{Project: p, Role: RoleOwner}, nil
	}

	m, err := svc.repo.GetActiveMembership(ctx, p.ID, usr.ID, strings.ToLower(usr.Email))
	if err != nil {
		if core.IsNotFound(err) {
			return Access{}, ErrForbidden
		}
		return Access{}, errors.Wrap(err, "finding membership")
	}

	acc := Access{Project: p, Role: m.Role}
	if !acc.Can(roles...) {
		return Access{}, ErrForbidden
	}
	return acc, nil
}

// IsParticipant reports whether userID owns the project or is one of its active members.
func (svc *Service) IsParticipant(ctx context.Context, projectID, userID string) (bool, error) {
	p, err := svc.repo.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	if p.OwnerID == userID {
		return true, nil
	}
	if _, err = svc.repo.GetActiveMembership(ctx, projectID, userID, ""); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *Service) Create(ctx context.Context, usr user.User, np NewProject) (Project, error) {
	count, err := svc.repo.CountOwnedProjects(ctx, usr.ID)
	if err != nil {
		return Project{}, errors.Wrap(err, "counting projects")
	}
	if err = plan.CheckProjectLimit(usr.Plan, count); err != nil {
		return Project{}, err
	}

	now := core.Now()
	p, err := svc.repo.CreateProject(ctx, Project{
		OwnerID:     usr.ID,
		Name:        np.Name,
		Description: np.Description,
		Industry:    np.Industry,
		Stage:       np.Stage,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Project{}, err
	}
	p.Role = RoleOwner
	return p, nil
}

func (svc *Service) List(ctx context.Context, usr user.User) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, usr.ID, strings.ToLower(usr.Email))
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountProjects(ctx)
}

func (svc *Service) Update(ctx context.Context, acc Access, up UpdateProject) (Project, error) {
	p := up.apply(acc.Project)
	p.UpdatedAt = core.Now()
	p, err := svc.repo.UpdateProject(ctx, p)
	if err != nil {
		return Project{}, err
	}
	p.Role = acc.Role
	return p, nil
}

func (svc *Service) Delete(ctx context.Context, acc Access) error {
	return svc.repo.DeleteProject(ctx, acc.Project.ID)
}

// Team lists the members of the project, pending invitations included.
func (svc *Service) Team(ctx context.Context, acc Access) ([]TeamMember, error) {
	return svc.repo.QueryTeamMembers(ctx, acc.Project.ID)
}

// Invite adds a pending member to the project and emails them an invitation.
// The team size is bounded by the plan of the project owner.
func (svc *Service) Invite(ctx context.Context, acc Access, inviter user.User, nm NewTeamMember) (TeamMember, error) {
	if nm.Role == RoleAdmin && !acc.IsOwner() {
		return TeamMember{}, errOwnerOnlyAdmin
	}

	if strings.EqualFold(acc.Project.OwnerEmail, nm.Email) {
		return TeamMember{}, core.NewValidationError(ErrOwnerIsMember, core.FieldError{Field: "email", Error: ErrOwnerIsMember.Error()})
	}

	if _, err := svc.repo.FindTeamMemberByEmail(ctx, acc.Project.ID, nm.Email); err == nil {
		return TeamMember{}, core.NewValidationError(ErrAlreadyMember, core.FieldError{Field: "email", Error: ErrAlreadyMember.Error()})
	} else if !core.IsNotFound(err) {
		return TeamMember{}, errors.Wrap(err, "finding team member by email")
	}

	count, err := svc.repo.CountTeamMembers(ctx, acc.Project.ID)
	if err != nil {
		return TeamMember{}, errors.Wrap(err, "counting team members")
	}
	if err = plan.CheckTeamLimit(acc.Project.OwnerPlan, count); err != nil {
		return TeamMember{}, err
	}

	now := core.Now()
	m, err := svc.repo.CreateTeamMember(ctx, TeamMember{
		ProjectID: acc.Project.ID,
		Email:     nm.Email,
		Role:      nm.Role,
		Status:    StatusPending,
		InvitedBy: inviter.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return TeamMember{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: m.Email}},
		Subject:      "Invitation à rejoindre « " + acc.Project.Name + " »",
		TemplateName: "team_invitation",
		TemplateData: map[string]interface{}{
			"InviterName": inviter.Name,
			"ProjectName": acc.Project.Name,
			"Role":        roleLabels[m.Role],
			"Email":       m.Email,
		},
	})
	return m, nil
}

func (svc *Service) getProjectMember(ctx context.Context, acc Access, memberID string) (TeamMember, error) {
	m, err := svc.repo.GetTeamMember(ctx, memberID)
	if err != nil {
		if core.IsNotFound(err) {
			return TeamMember{}, ErrMemberNotFound
		}
		return TeamMember{}, err
	}
	if m.ProjectID != acc.Project.ID {
		return TeamMember{}, ErrMemberNotFound
	}
	return m, nil
}

func (svc *Service) UpdateMember(ctx context.Context, acc Access, memberID string, um UpdateTeamMember) (TeamMember, error) {
	m, err := svc.getProjectMember(ctx, acc, memberID)
	if err != nil {
		return TeamMember{}, err
	}
	if (m.Role == RoleAdmin || um.Role == RoleAdmin) && !acc.IsOwner() {
		return TeamMember{}, errOwnerOnlyAdmin
	}
	m.Role = um.Role
	m.UpdatedAt = core.Now()
	return svc.repo.UpdateTeamMember(ctx, m)
}

func (svc *Service) RemoveMember(ctx context.Context, acc Access, memberID string) error {
	m, err := svc.getProjectMember(ctx, acc, memberID)
	if err != nil {
		return err
	}
	if m.Role == RoleAdmin && !acc.IsOwner() {
		return errOwnerOnlyAdmin
	}
	return svc.repo.DeleteTeamMember(ctx, m.ID)
}

func (svc *Service) Invitations(ctx context.Context, usr user.User) ([]Invitation, error) {
	return svc.repo.QueryInvitations(ctx, strings.ToLower(usr.Email))
}

// pendingInvitation returns the pending membership memberID if it was sent to usr.
func (svc *Service) pendingInvitation(ctx context.Context, usr user.User, memberID string, exec ...core.DBExecutor) (TeamMember, error) {
	m, err := svc.repo.GetTeamMember(ctx, memberID, exec...)
	if err != nil {
		if core.IsNotFound(err) {
			return TeamMember{}, ErrInvitationNotFound
		}
		return TeamMember{}, err
	}
	if m.Status != StatusPending || !strings.EqualFold(m.Email, usr.Email) {
		return TeamMember{}, ErrInvitationNotFound
	}
	return m, nil
}

// AcceptInvitation links the pending membership to usr and activates it.
func (svc *Service) AcceptInvitation(ctx context.Context, usr user.User, memberID string) (TeamMember, error) {
	var accepted TeamMember
	err := core.Transact(ctx, svc.db, func(tx core.DBExecutor) error {
		m, err := svc.pendingInvitation(ctx, usr, memberID, tx)
		if err != nil {
			return err
		}
		m.UserID = usr.ID
		m.Status = StatusActive
		m.UpdatedAt = core.Now()
		accepted, err = svc.repo.UpdateTeamMember(ctx, m, tx)
		return err
	})
	return accepted, err
}

func (svc *Service) DeclineInvitation(ctx context.Context, usr user.User, memberID string) error {
	m, err := svc.pendingInvitation(ctx, usr, memberID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteTeamMember(ctx, m.ID)
}

// CanWrite returns an error unless usr may edit the project.
func (svc *Service) CanWrite(ctx context.Context, usr user.User, projectID string) error {
	_, err := svc.ResolveAccess(ctx, usr, projectID, WriteRoles...)
	return err
}
