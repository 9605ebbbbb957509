package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/contact-directory/internal/domain"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, credential_hash, online, last_seen)
		 VALUES (?, ?, ?, ?)`,
		user.Username, user.CredentialHash, user.Online, user.LastSeen.UnixMilli(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	user.ID = id
	user.Contacts = []domain.Contact{}
	user.BlockedUsers = []int64{}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, credential_hash, online, last_seen
		 FROM users WHERE id = ?`, id,
	))
	if err != nil {
		return nil, err
	}
	if err := r.loadDirectory(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, credential_hash, online, last_seen
		 FROM users WHERE username = ?`, username,
	))
	if err != nil {
		return nil, err
	}
	if err := r.loadDirectory(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) SetPresence(ctx context.Context, id int64, online bool, lastSeen time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET online = ?, last_seen = ? WHERE id = ?`,
		online, lastSeen.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddContact(ctx context.Context, contact *domain.Contact) error {
	if err := r.ensureUser(ctx, contact.OwnerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (owner_id, contact_id, contact_name, added_date)
		 VALUES (?, ?, ?, ?)`,
		contact.OwnerID, contact.ContactID, contact.ContactName, contact.AddedDate.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	contact.ID = id
	return nil
}

func (r *UserRepository) ListContacts(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	if err := r.ensureUser(ctx, ownerID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, contact_id, contact_name, added_date
		 FROM contacts WHERE owner_id = ? ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		var c domain.Contact
		var added int64
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.ContactID, &c.ContactName, &added); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.AddedDate = time.UnixMilli(added)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *UserRepository) BlockUser(ctx context.Context, ownerID, blockedID int64) error {
	if err := r.ensureUser(ctx, ownerID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blocked_users (owner_id, blocked_id) VALUES (?, ?)`,
		ownerID, blockedID,
	)
	if err != nil {
		return fmt.Errorf("insert blocked user: %w", err)
	}
	return nil
}

// List returns all users ordered by id, with their directories loaded.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, credential_hash, online, last_seen FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	var users []domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The pool holds a single connection, so directories are loaded only
	// after the user cursor is released.
	for i := range users {
		if err := r.loadDirectory(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) CountOnline(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE online = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count online users: %w", err)
	}
	return n, nil
}

// Delete removes a user; contacts and blocked users cascade. AUTOINCREMENT
// keeps the id from being reused.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var lastSeen int64
	err := row.Scan(&user.ID, &user.Username, &user.CredentialHash, &user.Online, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.LastSeen = time.UnixMilli(lastSeen)
	return user, nil
}

func (r *UserRepository) loadDirectory(ctx context.Context, user *domain.User) error {
	contacts, err := r.ListContacts(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Contacts = contacts

	rows, err := r.db.QueryContext(ctx,
		`SELECT blocked_id FROM blocked_users WHERE owner_id = ? ORDER BY id`, user.ID,
	)
	if err != nil {
		return fmt.Errorf("query blocked users: %w", err)
	}
	defer rows.Close()

	user.BlockedUsers = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan blocked user: %w", err)
		}
		user.BlockedUsers = append(user.BlockedUsers, id)
	}
	return rows.Err()
}

func (r *UserRepository) ensureUser(ctx context.Context, id int64) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("query user: %w", err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
