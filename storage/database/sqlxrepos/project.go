package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/project"
)

const (
	projectColumns = "p.id, p.owner_id, p.name, p.description, p.industry, p.stage, p.created_at, p.updated_at"
	memberColumns  = "tm.id, tm.project_id, tm.user_id, tm.email, tm.role, tm.status, tm.invited_by, tm.created_at, tm.updated_at"

	// matches the active memberships of a user, by id or by email
	activeMemberCond = "tm.status = 'active' AND (tm.user_id = ? OR (? <> '' AND lower(tm.email) = lower(?)))"
)

type projectRow struct {
	ID          string      `db:"id"`
	OwnerID     string      `db:"owner_id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	Industry    string      `db:"industry"`
	Stage       string      `db:"stage"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	OwnerPlan   string      `db:"owner_plan"`
	OwnerEmail  string      `db:"owner_email"`
	Role        null.String `db:"role"`
}

type memberRow struct {
	ID          string      `db:"id"`
	ProjectID   string      `db:"project_id"`
	UserID      null.String `db:"user_id"`
	Email       string      `db:"email"`
	Name        null.String `db:"name"`
	Role        string      `db:"role"`
	Status      string      `db:"status"`
	InvitedBy   null.String `db:"invited_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	ProjectName string      `db:"project_name"`
	InviterName null.String `db:"inviter_name"`
}

type projectRepository struct {
	repository
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db core.DBExecutor) *projectRepository {
	return &projectRepository{repository{db: db}}
}

func (repo projectRepository) fromRow(row projectRow) project.Project {
	return project.Project{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        row.Name,
		Description: row.Description,
		Industry:    row.Industry,
		Stage:       row.Stage,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Role:        row.Role.String,
		OwnerPlan:   row.OwnerPlan,
		OwnerEmail:  row.OwnerEmail,
	}
}

func (repo projectRepository) memberToRow(m project.TeamMember) memberRow {
	return memberRow{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    null.NewString(m.UserID, m.UserID != ""),
		Email:     m.Email,
		Role:      m.Role,
		Status:    m.Status,
		InvitedBy: null.NewString(m.InvitedBy, m.InvitedBy != ""),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (repo projectRepository) memberFromRow(row memberRow) project.TeamMember {
	return project.TeamMember{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		UserID:    row.UserID.String,
		Email:     row.Email,
		Name:      row.Name.String,
		Role:      row.Role,
		Status:    row.Status,
		InvitedBy: row.InvitedBy.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo projectRepository) CreateProject(ctx context.Context, p project.Project, exec ...core.DBExecutor) (project.Project, error) {
	p.ID = uuid.NewString()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, description, industry, stage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Description, p.Industry, p.Stage, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return p, nil
}

func (repo projectRepository) GetProject(ctx context.Context, id string, exec ...core.DBExecutor) (project.Project, error) {
	var row projectRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT `+projectColumns+`, u.plan AS owner_plan, u.email AS owner_email, NULL AS role
		FROM projects p JOIN users u ON u.id = p.owner_id
		WHERE p.id = ?`, id)
	if err != nil {
		return project.Project{}, trapNoRowsErr(err, project.ErrNotFound, "finding project")
	}
	return repo.fromRow(row), nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, userID, email string, exec ...core.DBExecutor) ([]project.Project, error) {
	var rows []projectRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+projectColumns+`, u.plan AS owner_plan, u.email AS owner_email,
			CASE WHEN p.owner_id = ? THEN 'owner' ELSE (
				SELECT tm.role FROM team_members tm
				WHERE tm.project_id = p.id AND `+activeMemberCond+`
				ORDER BY tm.created_at DESC LIMIT 1
			) END AS role
		FROM projects p JOIN users u ON u.id = p.owner_id
		WHERE p.owner_id = ? OR EXISTS (
			SELECT 1 FROM team_members tm WHERE tm.project_id = p.id AND `+activeMemberCond+`
		)
		ORDER BY p.updated_at DESC`,
		userID, userID, email, email,
		userID, userID, email, email)
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}

	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, repo.fromRow(row))
	}
	return projects, nil
}

func (repo projectRepository) CountOwnedProjects(ctx context.Context, ownerID string, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM projects WHERE owner_id = ?", ownerID)
}

func (repo projectRepository) CountProjects(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM projects")
}

func (repo projectRepository) UpdateProject(ctx context.Context, p project.Project, exec ...core.DBExecutor) (project.Project, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, industry = ?, stage = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Industry, p.Stage, p.UpdatedAt.UTC(), p.ID)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if err = mustAffect(res, project.ErrNotFound); err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (repo projectRepository) DeleteProject(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return mustAffect(res, project.ErrNotFound)
}

func (repo projectRepository) GetActiveMembership(ctx context.Context, projectID, userID, email string, exec ...core.DBExecutor) (project.TeamMember, error) {
	var row memberRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT `+memberColumns+`, NULL AS name, '' AS project_name, NULL AS inviter_name
		FROM team_members tm
		WHERE tm.project_id = ? AND `+activeMemberCond+`
		ORDER BY tm.created_at DESC LIMIT 1`,
		projectID, userID, email, email)
	if err != nil {
		return project.TeamMember{}, trapNoRowsErr(err, project.ErrMemberNotFound, "finding membership")
	}
	return repo.memberFromRow(row), nil
}

func (repo projectRepository) QueryTeamMembers(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]project.TeamMember, error) {
	var rows []memberRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+memberColumns+`, u.name AS name, '' AS project_name, NULL AS inviter_name
		FROM team_members tm LEFT JOIN users u ON u.id = tm.user_id
		WHERE tm.project_id = ?
		ORDER BY tm.created_at`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying team members")
	}

	members := make([]project.TeamMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, repo.memberFromRow(row))
	}
	return members, nil
}

func (repo projectRepository) CountTeamMembers(ctx context.Context, projectID string, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM team_members WHERE project_id = ?", projectID)
}

func (repo projectRepository) getMember(ctx context.Context, exe core.DBExecutor, cond string, args ...interface{}) (project.TeamMember, error) {
	var row memberRow
	err := exe.GetContext(ctx, &row, `
		SELECT `+memberColumns+`, u.name AS name, '' AS project_name, NULL AS inviter_name
		FROM team_members tm LEFT JOIN users u ON u.id = tm.user_id
		WHERE `+cond, args...)
	if err != nil {
		return project.TeamMember{}, trapNoRowsErr(err, project.ErrMemberNotFound, "finding team member")
	}
	return repo.memberFromRow(row), nil
}

func (repo projectRepository) GetTeamMember(ctx context.Context, id string, exec ...core.DBExecutor) (project.TeamMember, error) {
	return repo.getMember(ctx, repo.getExec(exec), "tm.id = ?", id)
}

func (repo projectRepository) FindTeamMemberByEmail(ctx context.Context, projectID, email string, exec ...core.DBExecutor) (project.TeamMember, error) {
	return repo.getMember(ctx, repo.getExec(exec),
		"tm.project_id = ? AND lower(tm.email) = lower(?) ORDER BY tm.created_at DESC LIMIT 1", projectID, email)
}

func (repo projectRepository) CreateTeamMember(ctx context.Context, m project.TeamMember, exec ...core.DBExecutor) (project.TeamMember, error) {
	m.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO team_members (id, project_id, user_id, email, role, status, invited_by, created_at, updated_at)
		VALUES (:id, :project_id, :user_id, :email, :role, :status, :invited_by, :created_at, :updated_at)`,
		repo.memberToRow(m))
	if err != nil {
		return project.TeamMember{}, errors.Wrap(err, "inserting team member")
	}
	return m, nil
}

func (repo projectRepository) UpdateTeamMember(ctx context.Context, m project.TeamMember, exec ...core.DBExecutor) (project.TeamMember, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE team_members SET user_id = :user_id, email = :email, role = :role, status = :status, updated_at = :updated_at
		WHERE id = :id`, repo.memberToRow(m))
	if err != nil {
		return project.TeamMember{}, errors.Wrap(err, "updating team member")
	}
	if err = mustAffect(res, project.ErrMemberNotFound); err != nil {
		return project.TeamMember{}, err
	}
	return m, nil
}

func (repo projectRepository) DeleteTeamMember(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM team_members WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting team member")
	}
	return mustAffect(res, project.ErrMemberNotFound)
}

func (repo projectRepository) QueryInvitations(ctx context.Context, email string, exec ...core.DBExecutor) ([]project.Invitation, error) {
	var rows []memberRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+memberColumns+`, NULL AS name, p.name AS project_name, inv.name AS inviter_name
		FROM team_members tm
			JOIN projects p ON p.id = tm.project_id
			LEFT JOIN users inv ON inv.id = tm.invited_by
		WHERE tm.status = 'pending' AND lower(tm.email) = lower(?)
		ORDER BY tm.created_at DESC`, email)
	if err != nil {
		return nil, errors.Wrap(err, "querying invitations")
	}

	invitations := make([]project.Invitation, 0, len(rows))
	for _, row := range rows {
		invitations = append(invitations, project.Invitation{
			TeamMember:  repo.memberFromRow(row),
			ProjectName: row.ProjectName,
			InviterName: row.InviterName.String,
		})
	}
	return invitations, nil
}
