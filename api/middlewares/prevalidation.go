package api

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"

	"VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	"VentaCommSaas/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
)

func sellerMaps(sellers []validation.SellerInfo) []map[string]string {
	out := make([]map[string]string, 0, len(sellers))
	for _, s := range sellers {
		out = append(out, map[string]string{
			"seller_id":   s.SellerID,
			"seller_name": s.SellerName,
			"zone":        s.Zone,
		})
	}
	return out
}

func planMaps(plans []validation.PlanInfo) []map[string]string {
	out := make([]map[string]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]string{
			"plan_id":   p.PlanID,
			"plan_name": p.PlanName,
			"price":     p.Price.String(),
		})
	}
	return out
}

func zoneMaps(zones []validation.ZoneInfo) []map[string]string {
	out := make([]map[string]string, 0, len(zones))
	for _, z := range zones {
		out = append(out, map[string]string{
			"zone_id":   z.ZoneID,
			"zone_name": z.ZoneName,
		})
	}
	return out
}

// PreValidationMiddleware validates the session, resolves the caller's role
// and preloads the approved seller/plan/zone lists into the request context
// so handlers validate incoming rows without extra round trips.
func PreValidationMiddleware(db *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			userID, err := validation.ExtractUserID(r)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUserID)
				return
			}

			r.Body = io.NopCloser(bytes.NewBuffer(body))

			session := validation.ValidateSession(userID)
			if session == nil {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			validationResult, err := validation.PreValidateRequest(ctx, db, userID)
			if err != nil {
				api.RespondWithError(w, http.StatusUnauthorized, "Validation failed: "+err.Error())
				return
			}

			adminOverrideApplied := false

			// If admin override is enabled and the user is whitelisted or their role is
			// whitelisted, preload everything regardless of approval state
			if IsAdminOverrideEnabled() && IsAdminUser(userID) {
				all, errs := LoadEverythingIntoContext(ctx, db)
				for k, v := range all {
					ctx = context.WithValue(ctx, k, v)
				}
				if len(errs) > 0 {
					ctx = context.WithValue(ctx, "admin_override_load_errors", errs)
				}
				ctx = context.WithValue(ctx, "is_admin_override", true)
				ctx = context.WithValue(ctx, "admin_override_by", "user")
				adminOverrideApplied = true
			} else if IsAdminOverrideEnabled() {
				roleMatched := false
				matchedRoles := []string{}
				if validationResult.Role != "" && IsRoleAdminName(validationResult.Role) {
					roleMatched = true
					matchedRoles = append(matchedRoles, validationResult.Role)
				}
				if !roleMatched {
					isRoleAdmin, dbMatched, roleErr := IsUserInAdminRole(ctx, db, userID)
					if roleErr != nil {
						ctx = context.WithValue(ctx, "admin_override_load_errors", []string{"role_lookup: " + roleErr.Error()})
					}
					if isRoleAdmin {
						roleMatched = true
						matchedRoles = append(matchedRoles, dbMatched...)
					}
				}

				if roleMatched {
					all, errs := LoadEverythingIntoContext(ctx, db)
					for k, v := range all {
						ctx = context.WithValue(ctx, k, v)
					}
					ctx = context.WithValue(ctx, "is_admin_override", true)
					ctx = context.WithValue(ctx, "admin_override_by", "role")
					ctx = context.WithValue(ctx, "admin_override_role", matchedRoles)
					if len(errs) > 0 {
						ctx = context.WithValue(ctx, "admin_override_load_errors", errs)
					}
					log.Printf("[AUDIT] AdminOverride applied for user=%s by=role matched=%v", userID, matchedRoles)
					adminOverrideApplied = true
				}
			}

			// Without the override the standard approval context still loads;
			// seller/plan validations need these lists on every request.
			if !adminOverrideApplied {
				sellers, _ := validation.GetApprovedSellers(ctx, db)
				plans, _ := validation.GetApprovedPlans(ctx, db)
				zones, _ := validation.GetActiveZones(ctx, db)

				log.Printf("[PREVALIDATION] user=%s (%s) role=%s sellers=%d plans=%d zones=%d",
					userID, validationResult.UserName, validationResult.Role,
					len(sellers), len(plans), len(zones))

				ctx = context.WithValue(ctx, "ApprovedSellers", sellerMaps(sellers))
				ctx = context.WithValue(ctx, "ApprovedPlans", planMaps(plans))
				ctx = context.WithValue(ctx, "ActiveZones", zoneMaps(zones))
			}

			ctx = context.WithValue(ctx, "user_id", userID)
			ctx = context.WithValue(ctx, "session", session)
			ctx = context.WithValue(ctx, "user_name", validationResult.UserName)
			ctx = context.WithValue(ctx, "role", validationResult.Role)
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

func GetUserNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value("user_name").(string); ok {
		return name
	}
	return ""
}

func GetRoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value("role").(string); ok {
		return role
	}
	return ""
}
