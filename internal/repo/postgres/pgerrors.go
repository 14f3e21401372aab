package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// constraint names from migrations/00001_init.sql
const (
	constraintOneRunning    = "time_entries_one_running_per_user"
	constraintEntryOrder    = "time_entries_end_after_start"
	constraintEntryTaskFK   = "time_entries_task_id_fkey"
	constraintEntryUserFK   = "time_entries_user_id_fkey"
	constraintClientUserFK  = "clients_user_id_fkey"
	constraintProjectClient = "projects_client_id_fkey"
	constraintTaskProject   = "tasks_project_id_fkey"
	constraintUsersEmail    = "users_email_key"
)

// violates reports whether err is the given SQLSTATE, on the named constraint
// when one is given.
func violates(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
