package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/product"
)

const (
	productColumns = "id, code, name, description, price, is_active, created_at, updated_at"

	userProductSelect = `SELECT up.id, up.user_id, up.product_id, up.status, up.activated_at, up.created_at,
		u.name AS user_name, u.email AS user_email, p.code AS product_code, p.name AS product_name
	FROM user_products up
	JOIN users u ON u.id = up.user_id
	JOIN products p ON p.id = up.product_id`
)

type productRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       int64     `db:"price"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type userProductRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	ProductID   string    `db:"product_id"`
	Status      string    `db:"status"`
	ActivatedAt null.Time `db:"activated_at"`
	CreatedAt   time.Time `db:"created_at"`
	UserName    string    `db:"user_name"`
	UserEmail   string    `db:"user_email"`
	ProductCode string    `db:"product_code"`
	ProductName string    `db:"product_name"`
}

type productRepository struct {
	repository
}

var _ product.Repository = (*productRepository)(nil) // interface compliance check

func NewProductRepository(db core.DBExecutor) *productRepository {
	return &productRepository{repository{db: db}}
}

func (repo productRepository) toRow(p product.Product) productRow {
	row := productRow(p)
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	return row
}

func (repo productRepository) QueryProducts(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]product.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	var rows []productRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query+" ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "querying products")
	}

	products := make([]product.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, product.Product(row))
	}
	return products, nil
}

func (repo productRepository) GetProduct(ctx context.Context, id string, exec ...core.DBExecutor) (product.Product, error) {
	var row productRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+productColumns+" FROM products WHERE id = ?", id); err != nil {
		return product.Product{}, trapNoRowsErr(err, product.ErrNotFound, "finding product")
	}
	return product.Product(row), nil
}

func (repo productRepository) CreateProduct(ctx context.Context, p product.Product, exec ...core.DBExecutor) (product.Product, error) {
	p.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO products (`+productColumns+`)
		VALUES (:id, :code, :name, :description, :price, :is_active, :created_at, :updated_at)`, repo.toRow(p))
	if err != nil {
		if isUniqueViolation(err, "code") {
			return product.Product{}, product.ErrCodeExists
		}
		return product.Product{}, errors.Wrap(err, "inserting product")
	}
	return p, nil
}

func (repo productRepository) UpdateProduct(ctx context.Context, p product.Product, exec ...core.DBExecutor) (product.Product, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE products SET name = :name, description = :description, price = :price, is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`, repo.toRow(p))
	if err != nil {
		return product.Product{}, errors.Wrap(err, "updating product")
	}
	if err = mustAffect(res, product.ErrNotFound); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (repo productRepository) DeleteProduct(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting product")
	}
	return mustAffect(res, product.ErrNotFound)
}

func (repo productRepository) userProductFromRow(row userProductRow) product.UserProduct {
	return product.UserProduct{
		ID:          row.ID,
		UserID:      row.UserID,
		UserName:    row.UserName,
		UserEmail:   row.UserEmail,
		ProductID:   row.ProductID,
		ProductCode: row.ProductCode,
		ProductName: row.ProductName,
		Status:      row.Status,
		ActivatedAt: row.ActivatedAt.Ptr(),
		CreatedAt:   row.CreatedAt,
	}
}

func (repo productRepository) CreateUserProduct(ctx context.Context, up product.UserProduct, exec ...core.DBExecutor) (product.UserProduct, error) {
	up.ID = uuid.NewString()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO user_products (id, user_id, product_id, status, activated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		up.ID, up.UserID, up.ProductID, up.Status, nullTimePtr(up.ActivatedAt), up.CreatedAt.UTC())
	if err != nil {
		return product.UserProduct{}, errors.Wrap(err, "inserting user product")
	}
	return up, nil
}

func (repo productRepository) GetUserProduct(ctx context.Context, id string, exec ...core.DBExecutor) (product.UserProduct, error) {
	var row userProductRow
	if err := repo.getExec(exec).GetContext(ctx, &row, userProductSelect+" WHERE up.id = ?", id); err != nil {
		return product.UserProduct{}, trapNoRowsErr(err, product.ErrRequestNotFound, "finding user product")
	}
	return repo.userProductFromRow(row), nil
}

func (repo productRepository) QueryUserProducts(ctx context.Context, filter *product.QueryFilter, exec ...core.DBExecutor) ([]product.UserProduct, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.UserID != "" {
			conds = append(conds, "up.user_id = ?")
			args = append(args, filter.UserID)
		}
		if filter.Status != "" {
			conds = append(conds, "up.status = ?")
			args = append(args, filter.Status)
		}
	}

	var rows []userProductRow
	query := userProductSelect + where(conds) + " ORDER BY up.created_at DESC"
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying user products")
	}

	ups := make([]product.UserProduct, 0, len(rows))
	for _, row := range rows {
		ups = append(ups, repo.userProductFromRow(row))
	}
	return ups, nil
}

func (repo productRepository) FindUserProduct(ctx context.Context, userID, productID string, exec ...core.DBExecutor) (product.UserProduct, error) {
	var row userProductRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		userProductSelect+" WHERE up.user_id = ? AND up.product_id = ? ORDER BY up.created_at DESC LIMIT 1", userID, productID)
	if err != nil {
		return product.UserProduct{}, trapNoRowsErr(err, product.ErrRequestNotFound, "finding user product")
	}
	return repo.userProductFromRow(row), nil
}

func (repo productRepository) ReviewUserProduct(ctx context.Context, up product.UserProduct, exec ...core.DBExecutor) (product.UserProduct, error) {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx,
		"UPDATE user_products SET status = ?, activated_at = ? WHERE id = ? AND status = ?",
		up.Status, nullTimePtr(up.ActivatedAt), up.ID, product.StatusPending)
	if err != nil {
		return product.UserProduct{}, errors.Wrap(err, "reviewing user product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return product.UserProduct{}, errors.Wrap(err, "reviewing user product")
	}
	if n == 0 {
		if _, err = repo.GetUserProduct(ctx, up.ID, exe); err != nil {
			return product.UserProduct{}, err
		}
		return product.UserProduct{}, product.ErrAlreadyReviewed
	}
	return up, nil
}

func (repo productRepository) HasActiveProduct(ctx context.Context, userID, code string, exec ...core.DBExecutor) (bool, error) {
	n, err := count(ctx, repo.getExec(exec), `
		SELECT COUNT(*) FROM user_products up JOIN products p ON p.id = up.product_id
		WHERE up.user_id = ? AND p.code = ? AND up.status = ?`, userID, code, product.StatusActive)
	if err != nil {
		return false, errors.Wrap(err, "checking active product")
	}
	return n > 0, nil
}
