package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/skylineops/costview/internal/errors"
	"github.com/skylineops/costview/users"
)

// Store persists users and role assignments in Postgres.
type Store struct {
	db *sql.DB
}

var _ users.Repo = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("[postgres.Open] %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests and the CLI.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates tables and seeds the enumerated roles. A production
// deployment would run migrations instead; this mirrors the demo's
// create-on-startup behaviour.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`create table if not exists roles (
			id bigserial primary key,
			name text not null unique,
			description text
		)`,
		`create table if not exists users (
			id bigserial primary key,
			external_id text not null unique,
			email text not null unique,
			full_name text,
			is_active boolean not null default true,
			created_at timestamptz not null default now(),
			updated_at timestamptz
		)`,
		`create table if not exists user_roles (
			user_id bigint not null references users(id) on delete cascade,
			role_id bigint not null references roles(id) on delete cascade,
			primary key (user_id, role_id)
		)`,
		`insert into roles(name, description) values
			('` + users.RoleBasicUser + `', 'Basic user role'),
			('` + users.RoleAdmin + `', 'Administrator Role')
		on conflict (name) do nothing`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("[EnsureSchema] %w", err)
		}
	}
	return nil
}

const userColumns = `id, external_id, email, coalesce(full_name,''), is_active, created_at, updated_at`

func (s *Store) GetByID(ctx context.Context, id int64) (*users.User, error) {
	return s.getUser(ctx, `select `+userColumns+` from users where id=$1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getUser(ctx, `select `+userColumns+` from users where email=$1`, email)
}

func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*users.User, error) {
	return s.getUser(ctx, `select `+userColumns+` from users where external_id=$1`, externalID)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) List(ctx context.Context) ([]*users.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, user := range list {
		if err := s.loadRoles(ctx, user); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Store) Provision(ctx context.Context, externalID, email, fullName string) (*users.User, error) {
	existing, err := s.GetByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	if existing != nil {
		// Sync profile drift from the identity provider.
		if existing.Email != email || (fullName != "" && existing.FullName != fullName) {
			if _, err := s.db.ExecContext(ctx, `
				update users set email=$1, full_name=coalesce(nullif($2,''), full_name), updated_at=now()
				where id=$3
			`, email, fullName, existing.ID); err != nil {
				return nil, fmt.Errorf("[Provision] sync profile: %w", err)
			}
			return s.GetByID(ctx, existing.ID)
		}
		return existing, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, `
		insert into users(external_id, email, full_name, is_active)
		values ($1,$2,nullif($3,''),true)
		returning id
	`, externalID, email, fullName).Scan(&id); err != nil {
		return nil, fmt.Errorf("[Provision] insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		insert into user_roles(user_id, role_id)
		select $1, id from roles where name=$2
	`, id, users.RoleBasicUser); err != nil {
		return nil, fmt.Errorf("[Provision] assign basic role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Store) SetRole(ctx context.Context, id int64, roleName string) (*users.User, error) {
	if !users.KnownRole(roleName) {
		return nil, apperrors.ErrInvalidRole
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Confirm the user exists up front; otherwise the assignment insert
	// fails with an opaque foreign-key violation.
	var exists int
	err = tx.QueryRowContext(ctx, `select 1 from users where id=$1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var roleID int64
	err = tx.QueryRowContext(ctx, `select id from roles where name=$1`, roleName).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id=$1`, id); err != nil {
		return nil, fmt.Errorf("[SetRole] clear roles: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		insert into user_roles(user_id, role_id) values ($1,$2)
	`, id, roleID); err != nil {
		return nil, fmt.Errorf("[SetRole] assign role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GrantRole adds roleName to the user without touching existing
// assignments. Used by the make-admin CLI, which appends rather than
// replacing like SetRole.
func (s *Store) GrantRole(ctx context.Context, id int64, roleName string) error {
	if !users.KnownRole(roleName) {
		return apperrors.ErrInvalidRole
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into user_roles(user_id, role_id)
		select $1, id from roles where name=$2
		on conflict do nothing
	`, id, roleName); err != nil {
		return fmt.Errorf("[GrantRole] %w", err)
	}
	return nil
}

func (s *Store) loadRoles(ctx context.Context, user *users.User) error {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, coalesce(r.description,'')
		from roles r
		join user_roles ur on ur.role_id = r.id
		where ur.user_id = $1
		order by r.id
	`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	user.Roles = user.Roles[:0]
	for rows.Next() {
		var role users.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return err
		}
		user.Roles = append(user.Roles, role)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*users.User, error) {
	var (
		user      users.User
		updatedAt sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.ExternalID, &user.Email, &user.FullName, &user.IsActive, &user.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		user.UpdatedAt = &t
	}
	return &user, nil
}
