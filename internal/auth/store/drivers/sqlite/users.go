package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
)

type usersRepo struct {
	db  dbtx
	now func() time.Time
}

const userColumns = `id, email, name, role, password_hash,
	password_reset_token_hash, password_reset_token_expires_at,
	password_reset_required, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		role      string
		tokenHash sql.NullString
		tokenExp  sql.NullInt64
		created   int64
		updated   int64
		resetReq  bool
		active    bool
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash,
		&tokenHash, &tokenExp,
		&resetReq, &active, &created, &updated,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.Role = domain.Role(role)
	u.PasswordResetTokenHash = mapNullString(tokenHash)
	u.PasswordResetTokenExpiresAt = mapNullMillis(tokenExp)
	u.PasswordResetRequired = resetReq
	u.Active = active
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, domain.NormalizeEmail(email))
}

func (r *usersRepo) GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, `password_reset_token_hash = ?`, tokenHash)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := toMillis(r.now())
	var tokenHash sql.NullString
	var tokenExp sql.NullInt64
	if u.PasswordResetTokenHash != "" && u.PasswordResetTokenExpiresAt != nil {
		tokenHash = sql.NullString{String: u.PasswordResetTokenHash, Valid: true}
		tokenExp = sql.NullInt64{Int64: toMillis(*u.PasswordResetTokenExpiresAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, domain.NormalizeEmail(u.Email), u.Name, string(u.Role), u.PasswordHash,
		tokenHash, tokenExp,
		boolToInt(u.PasswordResetRequired), boolToInt(u.Active), now, now,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// exec runs an UPDATE that must hit exactly one user.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.exec(ctx, `
		UPDATE users SET
			password_hash = ?,
			password_reset_token_hash = NULL,
			password_reset_token_expires_at = NULL,
			password_reset_required = 0,
			updated_at = ?
		WHERE id = ?`,
		newHash, toMillis(r.now()), userID)
}

func (r *usersRepo) RehashPassword(ctx context.Context, userID, newHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toMillis(r.now()), userID)
}

func (r *usersRepo) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if tokenHash == "" {
		return fmt.Errorf("sqlite: empty reset token hash")
	}
	return r.exec(ctx, `
		UPDATE users SET
			password_reset_token_hash = ?,
			password_reset_token_expires_at = ?,
			updated_at = ?
		WHERE id = ?`,
		tokenHash, toMillis(expiresAt), toMillis(r.now()), userID)
}

func (r *usersRepo) ClearPasswordResetToken(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users SET
			password_reset_token_hash = NULL,
			password_reset_token_expires_at = NULL,
			updated_at = ?
		WHERE id = ?`,
		toMillis(r.now()), userID)
}

func (r *usersRepo) ConsumePasswordResetToken(
	ctx context.Context,
	userID, tokenHash, newHash string,
	now time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			password_hash = ?,
			password_reset_token_hash = NULL,
			password_reset_token_expires_at = NULL,
			password_reset_required = 0,
			updated_at = ?
		WHERE id = ?
			AND password_reset_token_hash = ?
			AND password_reset_token_expires_at > ?`,
		newHash, toMillis(r.now()), userID, tokenHash, toMillis(now))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *usersRepo) SetPasswordResetRequired(ctx context.Context, userID string, required bool) error {
	return r.exec(ctx, `UPDATE users SET password_reset_required = ?, updated_at = ? WHERE id = ?`,
		boolToInt(required), toMillis(r.now()), userID)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return r.exec(ctx, `UPDATE users SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toMillis(r.now()), userID)
}

func (r *usersRepo) DeleteExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			password_reset_token_hash = NULL,
			password_reset_token_expires_at = NULL,
			updated_at = ?
		WHERE password_reset_token_expires_at IS NOT NULL
			AND password_reset_token_expires_at <= ?`,
		toMillis(r.now()), toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
