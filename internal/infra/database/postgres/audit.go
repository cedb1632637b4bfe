package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/med-vault/internal/domain"
)

func (r *PGRepo) InsertAudit(ctx context.Context, rec domain.AuditRecord) (domain.AuditRecord, error) {
	q := r.qb().Insert(r.table("file_audit")).
		Columns("user_id", "container_name", "folder_name", "blob_name", "operation", "ts").
		Values(rec.UserID, rec.ContainerName, rec.FolderName, rec.BlobName, rec.Operation, rec.Timestamp).
		Suffix("RETURNING id")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("InsertAudit", sqlStr, args)

	start := time.Now()
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&rec.ID); err != nil {
		r.logger.Printf("InsertAudit error after %s: %v", time.Since(start), err)
		return domain.AuditRecord{}, err
	}
	return rec, nil
}

// QueryAudit возвращает страницу журнала с данными пользователя (join).
// Удалённые пользователи в журнале не встречаются: их записи снесены каскадом.
func (r *PGRepo) QueryAudit(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	q := r.qb().Select(
		"a.id", "a.user_id", "a.container_name", "a.folder_name", "a.blob_name", "a.operation", "a.ts",
		"u.name", "u.login", "u.role",
	).
		From(r.table("file_audit") + " a").
		Join(r.table("users") + " u ON u.id = a.user_id").
		OrderBy("a.ts DESC")

	if f.UserID != nil {
		q = q.Where(sq.Eq{"a.user_id": *f.UserID})
	}
	if f.ContainerName != "" {
		q = q.Where(sq.Eq{"a.container_name": f.ContainerName})
	}
	if f.FolderName != "" {
		q = q.Where(sq.Eq{"a.folder_name": f.FolderName})
	}
	if f.Operation != "" {
		q = q.Where(sq.Eq{"a.operation": f.Operation})
	}
	if !f.From.IsZero() {
		q = q.Where(sq.GtOrEq{"a.ts": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(sq.LtOrEq{"a.ts": f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sqlStr, args, _ := q.ToSql()
	r.logSQL("QueryAudit", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("QueryAudit error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.ContainerName, &e.FolderName, &e.BlobName, &e.Operation, &e.Timestamp,
			&e.UserName, &e.UserLogin, &e.UserRole,
		); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Printf("QueryAudit ok in %s rows=%d", time.Since(start), len(res))
	return res, nil
}
