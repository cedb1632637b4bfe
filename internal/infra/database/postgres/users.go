package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/med-vault/internal/domain"
)

const userColumns = "id, name, login, pass_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Login, &u.PassHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (r *PGRepo) CreateUser(ctx context.Context, name, login string, passHash []byte, role domain.Role) (domain.User, error) {
	q := r.qb().Insert(r.table("users")).
		Columns("name", "login", "pass_hash", "role").
		Values(name, login, passHash, string(role)).
		Suffix("RETURNING " + userColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateUser", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateUser scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapPgErr(err)
	}
	r.logger.Printf("CreateUser ok in %s id=%s login=%s role=%s", time.Since(start), u.ID, u.Login, u.Role)
	return u, nil
}

func (r *PGRepo) UserByLogin(ctx context.Context, login string) (domain.User, error) {
	q := r.qb().Select(userColumns).
		From(r.table("users")).
		Where(sq.Eq{"login": login})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserByLogin", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserByLogin scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapPgErr(err)
	}
	r.logger.Printf("UserByLogin ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	q := r.qb().Select(userColumns).
		From(r.table("users")).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UserByID", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UserByID scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapPgErr(err)
	}
	r.logger.Printf("UserByID ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	q := r.qb().Select(userColumns).
		From(r.table("users")).
		OrderBy("created_at ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("ListUsers", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("ListUsers query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			r.logger.Printf("ListUsers scan error: %v", err)
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("ListUsers rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("ListUsers ok in %s count=%d", time.Since(start), len(res))
	return res, nil
}

func (r *PGRepo) UpdateUser(ctx context.Context, id domain.UserID, upd domain.UserUpdate) (domain.User, error) {
	set := map[string]any{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Login != nil {
		set["login"] = *upd.Login
	}
	if upd.PassHash != nil {
		set["pass_hash"] = upd.PassHash
	}
	if upd.Role != nil {
		set["role"] = string(*upd.Role)
	}
	if len(set) == 0 {
		return domain.User{}, fmt.Errorf("no fields to update: %w", domain.ErrBadParams)
	}

	q := r.qb().Update(r.table("users")).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + userColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("UpdateUser", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UpdateUser scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapPgErr(err)
	}
	r.logger.Printf("UpdateUser ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

// DeleteUser удаляет пользователя каскадом: сперва журнал аудита, затем
// папочные и контейнерные назначения, последней — запись пользователя.
// Всё одной транзакцией: частичного каскада снаружи не видно.
func (r *PGRepo) DeleteUser(ctx context.Context, id domain.UserID) error {
	start := time.Now()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []sq.DeleteBuilder{
		r.qb().Delete(r.table("file_audit")).Where(sq.Eq{"user_id": id}),
		r.qb().Delete(r.table("folder_assignments")).Where(sq.Eq{"user_id": id}),
		r.qb().Delete(r.table("container_assignments")).Where(sq.Eq{"user_id": id}),
	}
	for _, q := range steps {
		sqlStr, args, _ := q.ToSql()
		r.logSQL("DeleteUser.cascade", sqlStr, args)
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			r.logger.Printf("DeleteUser cascade error after %s: %v", time.Since(start), err)
			return err
		}
	}

	q := r.qb().Delete(r.table("users")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("DeleteUser", sqlStr, args)
	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("DeleteUser exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("DeleteUser commit error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("DeleteUser ok in %s id=%s", time.Since(start), id)
	return nil
}
