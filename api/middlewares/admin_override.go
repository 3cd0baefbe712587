package api

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"VentaCommSaas/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var (
	adminUserIDs   []string
	adminOnce      sync.Once
	adminRoleNames []string
	adminRoleOnce  sync.Once
)

func init() {
	// Try to load .env if present (optional)
	_ = godotenv.Load()
}

// loadAdminList populates adminUserIDs from env variable ADMIN_USER_IDS
// Format: comma separated user IDs, e.g. "user1,user2,user3"
func loadAdminList() {
	adminOnce.Do(func() {
		raw := os.Getenv("ADMIN_USER_IDS")
		if raw == "" {
			adminUserIDs = []string{}
			return
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			t := strings.TrimSpace(p)
			if t != "" {
				out = append(out, t)
			}
		}
		adminUserIDs = out
	})
}

// loadAdminRoles populates adminRoleNames from env variable ADMIN_ROLES
// Format: comma separated role names, e.g. "admin,superadmin"
func loadAdminRoles() {
	adminRoleOnce.Do(func() {
		raw := os.Getenv("ADMIN_ROLES")
		if raw == "" {
			adminRoleNames = []string{"admin"}
			return
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			t := strings.ToLower(strings.TrimSpace(p))
			if t != "" {
				out = append(out, t)
			}
		}
		adminRoleNames = out
	})
}

// IsRoleAdminName checks whether a role name matches the admin roles list
func IsRoleAdminName(roleName string) bool {
	if roleName == "" {
		return false
	}
	loadAdminRoles()
	rn := strings.ToLower(strings.TrimSpace(roleName))
	for _, v := range adminRoleNames {
		if v == rn {
			return true
		}
	}
	return false
}

// GetUserRoles returns role names for a given user id by querying the DB
func GetUserRoles(ctx context.Context, db *pgxpool.Pool, userID string) ([]string, error) {
	names := []string{}
	if userID == "" {
		return names, nil
	}
	query := `SELECT r.role_name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = $1`
	rows, err := db.Query(ctx, query, userID)
	if err != nil {
		return names, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsUserInAdminRole checks whether the user has any role that matches ADMIN_ROLES.
// Returns matched role names and any DB error encountered.
func IsUserInAdminRole(ctx context.Context, db *pgxpool.Pool, userID string) (bool, []string, error) {
	loadAdminRoles()
	if len(adminRoleNames) == 0 {
		return false, nil, nil
	}
	names, err := GetUserRoles(ctx, db, userID)
	if err != nil {
		return false, nil, err
	}
	matched := []string{}
	for _, n := range names {
		if IsRoleAdminName(n) {
			matched = append(matched, n)
		}
	}
	if len(matched) > 0 {
		log.Printf("[AUDIT] IsUserInAdminRole: user=%s matched_roles=%v", userID, matched)
	}
	return len(matched) > 0, matched, nil
}

// IsAdminOverrideEnabled checks whether admin override is globally enabled
// Controlled by env var ENABLE_ADMIN_OVERRIDE=true
func IsAdminOverrideEnabled() bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_ADMIN_OVERRIDE"))) == "true"
}

// IsAdminUser returns true if the given userID is present in ADMIN_USER_IDS
func IsAdminUser(userID string) bool {
	if userID == "" {
		return false
	}
	loadAdminList()
	for _, id := range adminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// LoadEverythingIntoContext loads all approved master lists into a map that
// can be written into the request context by the middleware.
func LoadEverythingIntoContext(ctx context.Context, db *pgxpool.Pool) (map[string]interface{}, []string) {
	result := make(map[string]interface{})
	var errs []string

	sellers, err := validation.GetApprovedSellers(ctx, db)
	if err != nil {
		errs = append(errs, "GetApprovedSellers: "+err.Error())
		sellers = []validation.SellerInfo{}
	}
	result["ApprovedSellers"] = sellerMaps(sellers)

	plans, err := validation.GetApprovedPlans(ctx, db)
	if err != nil {
		errs = append(errs, "GetApprovedPlans: "+err.Error())
		plans = []validation.PlanInfo{}
	}
	result["ApprovedPlans"] = planMaps(plans)

	zones, err := validation.GetActiveZones(ctx, db)
	if err != nil {
		errs = append(errs, "GetActiveZones: "+err.Error())
		zones = []validation.ZoneInfo{}
	}
	result["ActiveZones"] = zoneMaps(zones)

	return result, errs
}
