package validation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ValidationResult is the per-request identity bundle resolved up front so
// handlers never repeat the user/role lookups.
type ValidationResult struct {
	UserID   string
	UserName string
	Role     string
}

// PreValidateRequest resolves user and role in one query instead of one
// middleware round trip each.
func PreValidateRequest(ctx context.Context, db *pgxpool.Pool, userID string) (*ValidationResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		WITH user_info AS (
			SELECT
				id AS user_id,
				COALESCE(NULLIF(employee_name, ''), username) AS user_name
			FROM users
			WHERE id = $1
			LIMIT 1
		),
		user_role AS (
			SELECT r.role_name
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1
			ORDER BY r.role_name
			LIMIT 1
		)
		SELECT
			u.user_id,
			u.user_name,
			COALESCE(ro.role_name, 'viewer')
		FROM user_info u
		LEFT JOIN user_role ro ON true
	`

	var result ValidationResult
	err := db.QueryRow(ctx, query, userID).Scan(
		&result.UserID,
		&result.UserName,
		&result.Role,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to validate user: %w", err)
	}

	if result.UserID == "" {
		return nil, fmt.Errorf("user not found: %s", userID)
	}

	return &result, nil
}
