package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akarpov/passportd/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, user_name, cellphone, email, password, nick_name, roles, status,
	cellphone_binding_code, cellphone_binding_expire_at,
	cellphone_auth_code, cellphone_auth_expire_at,
	email_binding_code, email_binding_expire_at,
	email_auth_code, email_auth_expire_at,
	created_at, updated_at, created_by, updated_by`

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) FindByIdentity(ctx context.Context, filter model.AccountFilter) (model.Account, error) {
	var column, bindingCode string
	switch filter.Kind {
	case model.KindCellphone:
		column, bindingCode = "cellphone", "cellphone_binding_code"
	case model.KindEmail:
		column, bindingCode = "email", "email_binding_code"
	default:
		column = "user_name"
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, accountColumns, column)
	if filter.OnlyEnabled {
		query += fmt.Sprintf(" AND status = %d", model.StatusEnabled)
	}
	if filter.ChannelVerified && bindingCode != "" {
		query += fmt.Sprintf(" AND %s IS NULL", bindingCode)
	}

	account, err := scanAccount(r.db.QueryRow(ctx, query, filter.Value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to find account by identity: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, accountColumns)

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Insert(ctx context.Context, account model.Account) (model.Account, error) {
	query := fmt.Sprintf(`INSERT INTO users (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING %s`, accountColumns, accountColumns)

	saved, err := scanAccount(r.db.QueryRow(ctx, query, accountArgs(account)...))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrIdentityInUse
		}
		return model.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) Update(ctx context.Context, account model.Account, expected *time.Time) (model.Account, error) {
	query := `UPDATE users SET
		user_name = $2, cellphone = $3, email = $4, password = $5, nick_name = $6, roles = $7, status = $8,
		cellphone_binding_code = $9, cellphone_binding_expire_at = $10,
		cellphone_auth_code = $11, cellphone_auth_expire_at = $12,
		email_binding_code = $13, email_binding_expire_at = $14,
		email_auth_code = $15, email_auth_expire_at = $16,
		created_at = $17, updated_at = $18, created_by = $19, updated_by = $20
		WHERE id = $1`

	args := accountArgs(account)
	if expected != nil {
		query += " AND updated_at = $21"
		args = append(args, *expected)
	}
	query += fmt.Sprintf(" RETURNING %s", accountColumns)

	saved, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if expected != nil {
				return model.Account{}, model.ErrConflict
			}
			return model.Account{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrIdentityInUse
		}
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) ClearExpiredBindings(ctx context.Context, before time.Time) (int64, error) {
	now := time.Now()

	cellphone, err := r.db.Exec(ctx, `UPDATE users SET
		cellphone = NULL, cellphone_binding_code = NULL, cellphone_binding_expire_at = NULL, updated_at = $2
		WHERE cellphone_binding_code IS NOT NULL AND cellphone_binding_expire_at < $1`, before, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cellphone bindings: %w", err)
	}

	email, err := r.db.Exec(ctx, `UPDATE users SET
		email = NULL, email_binding_code = NULL, email_binding_expire_at = NULL, updated_at = $2
		WHERE email_binding_code IS NOT NULL AND email_binding_expire_at < $1`, before, now)
	if err != nil {
		return cellphone.RowsAffected(), fmt.Errorf("failed to clear expired email bindings: %w", err)
	}

	return cellphone.RowsAffected() + email.RowsAffected(), nil
}

func (r *AccountRepository) DeleteUnreachable(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users
		WHERE user_name IS NULL AND cellphone IS NULL AND email IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unreachable accounts: %w", err)
	}

	return tag.RowsAffected(), nil
}

func accountArgs(account model.Account) []any {
	return []any{
		account.ID, account.UserName, account.Cellphone, account.Email,
		account.Password, account.NickName, account.Roles, account.Status,
		captchaCode(account.CellphoneBindingCaptcha), captchaExpire(account.CellphoneBindingCaptcha),
		captchaCode(account.CellphoneAuthCaptcha), captchaExpire(account.CellphoneAuthCaptcha),
		captchaCode(account.EmailBindingCaptcha), captchaExpire(account.EmailBindingCaptcha),
		captchaCode(account.EmailAuthCaptcha), captchaExpire(account.EmailAuthCaptcha),
		account.CreatedAt, account.UpdatedAt, account.CreatedBy, account.UpdatedBy,
	}
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	var cellphoneBindingCode, cellphoneAuthCode, emailBindingCode, emailAuthCode *string
	var cellphoneBindingExpire, cellphoneAuthExpire, emailBindingExpire, emailAuthExpire *time.Time

	err := row.Scan(
		&account.ID, &account.UserName, &account.Cellphone, &account.Email,
		&account.Password, &account.NickName, &account.Roles, &account.Status,
		&cellphoneBindingCode, &cellphoneBindingExpire,
		&cellphoneAuthCode, &cellphoneAuthExpire,
		&emailBindingCode, &emailBindingExpire,
		&emailAuthCode, &emailAuthExpire,
		&account.CreatedAt, &account.UpdatedAt, &account.CreatedBy, &account.UpdatedBy,
	)
	if err != nil {
		return model.Account{}, err
	}

	account.CellphoneBindingCaptcha = toCaptcha(cellphoneBindingCode, cellphoneBindingExpire)
	account.CellphoneAuthCaptcha = toCaptcha(cellphoneAuthCode, cellphoneAuthExpire)
	account.EmailBindingCaptcha = toCaptcha(emailBindingCode, emailBindingExpire)
	account.EmailAuthCaptcha = toCaptcha(emailAuthCode, emailAuthExpire)

	return account, nil
}

func toCaptcha(code *string, expire *time.Time) *model.Captcha {
	if code == nil || expire == nil {
		return nil
	}
	return &model.Captcha{Code: *code, ExpireAt: *expire}
}

func captchaCode(c *model.Captcha) *string {
	if c == nil {
		return nil
	}
	return &c.Code
}

func captchaExpire(c *model.Captcha) *time.Time {
	if c == nil {
		return nil
	}
	return &c.ExpireAt
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
