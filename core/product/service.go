package product

import (
	"context"
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("produit introuvable")
	ErrRequestNotFound  = core.NewNotFoundError("demande introuvable")
	ErrCodeExists       = errors.New("un produit existe déjà avec ce code")
	errAlreadyRequested = core.NewValidationError(nil, core.FieldError{Field: "product_id", Error: "vous avez déjà demandé ce produit"})
	ErrAlreadyReviewed  = core.NewValidationError(nil, core.FieldError{Field: "status", Error: "cette demande a déjà été traitée"})

	slugTag  = "slug"
	slugText = "seuls les lettres minuscules, chiffres et tirets sont autorisés"
	slugRgx  = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
		return slugRgx.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, slugTag, slugText)
}

type (
	Repository interface {
		QueryProducts(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Product, error)
		GetProduct(ctx context.Context, id string, exec ...core.DBExecutor) (Product, error)
		// CreateProduct returns ErrCodeExists if the code is taken.
		CreateProduct(ctx context.Context, p Product, exec ...core.DBExecutor) (Product, error)
		UpdateProduct(ctx context.Context, p Product, exec ...core.DBExecutor) (Product, error)
		DeleteProduct(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateUserProduct(ctx context.Context, up UserProduct, exec ...core.DBExecutor) (UserProduct, error)
		// GetUserProduct returns the request along with its product and user.
		GetUserProduct(ctx context.Context, id string, exec ...core.DBExecutor) (UserProduct, error)
		QueryUserProducts(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]UserProduct, error)
		// FindUserProduct returns the latest request of the user for the product.
		FindUserProduct(ctx context.Context, userID, productID string, exec ...core.DBExecutor) (UserProduct, error)
		// ReviewUserProduct saves the new status of up only if the stored request is still pending;
		// it returns ErrAlreadyReviewed otherwise.
		ReviewUserProduct(ctx context.Context, up UserProduct, exec ...core.DBExecutor) (UserProduct, error)
		HasActiveProduct(ctx context.Context, userID, code string, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Catalog returns the products on sale.
func (svc *Service) Catalog(ctx context.Context) ([]Product, error) {
	return svc.repo.QueryProducts(ctx, true)
}

func (svc *Service) All(ctx context.Context) ([]Product, error) {
	return svc.repo.QueryProducts(ctx, false)
}

func (svc *Service) Get(ctx context.Context, id string) (Product, error) {
	return svc.repo.GetProduct(ctx, id)
}

func (svc *Service) Create(ctx context.Context, np NewProduct) (Product, error) {
	now := core.Now()
	p, err := svc.repo.CreateProduct(ctx, Product{
		Code:        np.Code,
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		IsActive:    np.IsActive == nil || *np.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Cause(err) == ErrCodeExists {
		return Product{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return p, err
}

func (svc *Service) Update(ctx context.Context, p Product, up UpdateProduct) (Product, error) {
	p.Name = up.Name
	p.Description = up.Description
	p.Price = up.Price
	if up.IsActive != nil {
		p.IsActive = *up.IsActive
	}
	p.UpdatedAt = core.Now()
	return svc.repo.UpdateProduct(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, p Product) error {
	return svc.repo.DeleteProduct(ctx, p.ID)
}

// Mine returns the product requests of the user.
func (svc *Service) Mine(ctx context.Context, usr user.User) ([]UserProduct, error) {
	return svc.repo.QueryUserProducts(ctx, &QueryFilter{UserID: usr.ID})
}

// Request asks for the activation of a product on sale.
// A pending or active request for the same product is refused.
func (svc *Service) Request(ctx context.Context, usr user.User, productID string) (UserProduct, error) {
	p, err := svc.repo.GetProduct(ctx, productID)
	if err != nil {
		return UserProduct{}, err
	}
	if !p.IsActive {
		return UserProduct{}, ErrNotFound
	}

	prev, err := svc.repo.FindUserProduct(ctx, usr.ID, p.ID)
	if err == nil && prev.Status != StatusRejected {
		return UserProduct{}, errAlreadyRequested
	}
	if err != nil && !core.IsNotFound(err) {
		return UserProduct{}, errors.Wrap(err, "finding previous request")
	}

	up, err := svc.repo.CreateUserProduct(ctx, UserProduct{
		UserID:    usr.ID,
		ProductID: p.ID,
		Status:    StatusPending,
		CreatedAt: core.Now(),
	})
	if err != nil {
		return UserProduct{}, err
	}
	up.ProductCode = p.Code
	up.ProductName = p.Name
	return up, nil
}

func (svc *Service) QueryRequests(ctx context.Context, filter *QueryFilter) ([]UserProduct, error) {
	return svc.repo.QueryUserProducts(ctx, filter)
}

func (svc *Service) GetRequest(ctx context.Context, id string) (UserProduct, error) {
	return svc.repo.GetUserProduct(ctx, id)
}

func (svc *Service) Approve(ctx context.Context, up UserProduct) (UserProduct, error) {
	if up.Status != StatusPending {
		return UserProduct{}, ErrAlreadyReviewed
	}
	now := core.Now()
	up.Status = StatusActive
	up.ActivatedAt = &now
	return svc.repo.ReviewUserProduct(ctx, up)
}

func (svc *Service) Reject(ctx context.Context, up UserProduct) (UserProduct, error) {
	if up.Status != StatusPending {
		return UserProduct{}, ErrAlreadyReviewed
	}
	up.Status = StatusRejected
	return svc.repo.ReviewUserProduct(ctx, up)
}

// HasActiveProduct tells whether the user activated the product code.
func (svc *Service) HasActiveProduct(ctx context.Context, usr user.User, code string) (bool, error) {
	return svc.repo.HasActiveProduct(ctx, usr.ID, code)
}
