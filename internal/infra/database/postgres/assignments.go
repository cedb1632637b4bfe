package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/EgorLis/med-vault/internal/domain"
)

const containerAssignmentColumns = "id, user_id, container_name, created_at"
const folderAssignmentColumns = "id, user_id, container_name, folder_name, created_at"

func scanContainerAssignment(row interface{ Scan(...any) error }) (domain.ContainerAssignment, error) {
	var a domain.ContainerAssignment
	err := row.Scan(&a.ID, &a.UserID, &a.ContainerName, &a.CreatedAt)
	return a, err
}

func scanFolderAssignment(row interface{ Scan(...any) error }) (domain.FolderAssignment, error) {
	var a domain.FolderAssignment
	err := row.Scan(&a.ID, &a.UserID, &a.ContainerName, &a.FolderName, &a.CreatedAt)
	return a, err
}

func (r *PGRepo) CreateContainerAssignment(ctx context.Context, userID domain.UserID, containerName string) (domain.ContainerAssignment, error) {
	q := r.qb().Insert(r.table("container_assignments")).
		Columns("user_id", "container_name").
		Values(userID, containerName).
		Suffix("RETURNING " + containerAssignmentColumns)

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateContainerAssignment", sqlStr, args)

	start := time.Now()
	a, err := scanContainerAssignment(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		// уникальный конфликт по (user_id, container_name) — уже назначен
		r.logger.Printf("CreateContainerAssignment error after %s: %v", time.Since(start), err)
		return domain.ContainerAssignment{}, mapPgErr(err)
	}
	r.logger.Printf("CreateContainerAssignment ok in %s id=%s user=%s container=%s",
		time.Since(start), a.ID, a.UserID, a.ContainerName)
	return a, nil
}

// CreateFolderAssignments вставляет назначения папок одной транзакцией.
// Требование: контейнер уже назначен пользователю (проверяется внутри той же
// транзакции). Уже назначенные папки пропускаются, не считаются ошибкой.
func (r *PGRepo) CreateFolderAssignments(ctx context.Context, userID domain.UserID, containerName string, folders []domain.FolderName) ([]domain.FolderAssignment, error) {
	start := time.Now()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// pre-check: контейнер назначен
	cq := r.qb().Select("1").
		From(r.table("container_assignments")).
		Where(sq.Eq{"user_id": userID, "container_name": containerName})
	sqlStr, args, _ := cq.ToSql()
	r.logSQL("CreateFolderAssignments.check", sqlStr, args)

	var one int
	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("container %s not assigned to user %s: %w", containerName, userID, domain.ErrBadParams)
		}
		return nil, err
	}

	var res []domain.FolderAssignment
	for _, folder := range folders {
		iq := r.qb().Insert(r.table("folder_assignments")).
			Columns("user_id", "container_name", "folder_name").
			Values(userID, containerName, folder.String()).
			Suffix("ON CONFLICT (user_id, container_name, folder_name) DO NOTHING RETURNING " + folderAssignmentColumns)

		sqlStr, args, _ := iq.ToSql()
		r.logSQL("CreateFolderAssignments.insert", sqlStr, args)

		a, err := scanFolderAssignment(tx.QueryRow(ctx, sqlStr, args...))
		if err != nil {
			if err == pgx.ErrNoRows {
				continue // уже назначена — пропускаем
			}
			r.logger.Printf("CreateFolderAssignments insert error after %s: %v", time.Since(start), err)
			return nil, err
		}
		res = append(res, a)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("CreateFolderAssignments commit error after %s: %v", time.Since(start), err)
		return nil, err
	}
	r.logger.Printf("CreateFolderAssignments ok in %s user=%s container=%s inserted=%d",
		time.Since(start), userID, containerName, len(res))
	return res, nil
}

// RevokeContainerAssignment удаляет контейнерное назначение вместе со всеми
// папочными под ним — одной транзакцией. Частичный каскад (контейнер удалён,
// папки остались) — нарушение инварианта.
func (r *PGRepo) RevokeContainerAssignment(ctx context.Context, id domain.AssignmentID) error {
	start := time.Now()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := r.qb().Select("user_id", "container_name").
		From(r.table("container_assignments")).
		Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("RevokeContainerAssignment.lookup", sqlStr, args)

	var userID domain.UserID
	var containerName string
	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&userID, &containerName); err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("container assignment %s: %w", id, domain.ErrNotFound)
		}
		return err
	}

	fq := r.qb().Delete(r.table("folder_assignments")).
		Where(sq.Eq{"user_id": userID, "container_name": containerName})
	sqlStr, args, _ = fq.ToSql()
	r.logSQL("RevokeContainerAssignment.folders", sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logger.Printf("RevokeContainerAssignment folders error after %s: %v", time.Since(start), err)
		return err
	}

	dq := r.qb().Delete(r.table("container_assignments")).Where(sq.Eq{"id": id})
	sqlStr, args, _ = dq.ToSql()
	r.logSQL("RevokeContainerAssignment.container", sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logger.Printf("RevokeContainerAssignment exec error after %s: %v", time.Since(start), err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("RevokeContainerAssignment commit error after %s: %v", time.Since(start), err)
		return err
	}
	r.logger.Printf("RevokeContainerAssignment ok in %s id=%s user=%s container=%s",
		time.Since(start), id, userID, containerName)
	return nil
}

func (r *PGRepo) RevokeFolderAssignment(ctx context.Context, id domain.AssignmentID) error {
	q := r.qb().Delete(r.table("folder_assignments")).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("RevokeFolderAssignment", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("RevokeFolderAssignment exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("folder assignment %s: %w", id, domain.ErrNotFound)
	}
	r.logger.Printf("RevokeFolderAssignment ok in %s id=%s", time.Since(start), id)
	return nil
}

func (r *PGRepo) AssignmentsForUser(ctx context.Context, userID domain.UserID) ([]domain.ContainerAssignment, []domain.FolderAssignment, error) {
	cq := r.qb().Select(containerAssignmentColumns).
		From(r.table("container_assignments")).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at ASC")
	sqlStr, args, _ := cq.ToSql()
	r.logSQL("AssignmentsForUser.containers", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, nil, err
	}
	var containers []domain.ContainerAssignment
	for rows.Next() {
		a, err := scanContainerAssignment(rows)
		if err != nil {
			rows.Close()
			return nil, nil, err
		}
		containers = append(containers, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	fq := r.qb().Select(folderAssignmentColumns).
		From(r.table("folder_assignments")).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("container_name ASC", "folder_name ASC")
	sqlStr, args, _ = fq.ToSql()
	r.logSQL("AssignmentsForUser.folders", sqlStr, args)

	rows, err = r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var folders []domain.FolderAssignment
	for rows.Next() {
		a, err := scanFolderAssignment(rows)
		if err != nil {
			return nil, nil, err
		}
		folders = append(folders, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	r.logger.Printf("AssignmentsForUser ok in %s user=%s containers=%d folders=%d",
		time.Since(start), userID, len(containers), len(folders))
	return containers, folders, nil
}

func (r *PGRepo) HasContainerAssignment(ctx context.Context, userID domain.UserID, containerName string) (bool, error) {
	q := r.qb().Select("1").
		From(r.table("container_assignments")).
		Where(sq.Eq{"user_id": userID, "container_name": containerName})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("HasContainerAssignment", sqlStr, args)

	var one int
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepo) HasFolderAssignment(ctx context.Context, userID domain.UserID, containerName string, folder domain.FolderName) (bool, error) {
	q := r.qb().Select("1").
		From(r.table("folder_assignments")).
		Where(sq.Eq{"user_id": userID, "container_name": containerName, "folder_name": folder.String()})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("HasFolderAssignment", sqlStr, args)

	var one int
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
