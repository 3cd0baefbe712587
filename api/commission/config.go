package commission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	api "VentaCommSaas/api"
	middlewares "VentaCommSaas/api/middlewares"
	comm "VentaCommSaas/internal/commission"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// getOrCreateConfig reads the singleton scheme row, seeding the defaults on
// first access so a fresh database always has a working scheme.
func getOrCreateConfig(ctx context.Context, db *pgxpool.Pool) (comm.Config, error) {
	var sellerFree, sellerPaid, installerFree, installerPaid string
	err := db.QueryRow(ctx, `
		SELECT seller_free_amount::text, seller_paid_amount::text,
		       installer_free_rate::text, installer_paid_rate::text
		FROM commissionconfig
		LIMIT 1
	`).Scan(&sellerFree, &sellerPaid, &installerFree, &installerPaid)
	if errors.Is(err, pgx.ErrNoRows) {
		cfg := comm.DefaultConfig()
		_, insErr := db.Exec(ctx, `
			INSERT INTO commissionconfig (
				seller_free_amount, seller_paid_amount, installer_free_rate, installer_paid_rate, updated_at
			) VALUES ($1, $2, $3, $4, now())
		`, cfg.SellerFreeAmount.String(), cfg.SellerPaidAmount.String(), cfg.InstallerFreeRate.String(), cfg.InstallerPaidRate.String())
		if insErr != nil {
			return comm.Config{}, insErr
		}
		return cfg, nil
	}
	if err != nil {
		return comm.Config{}, err
	}
	cfg := comm.Config{}
	if cfg.SellerFreeAmount, err = decimal.NewFromString(sellerFree); err != nil {
		return comm.Config{}, err
	}
	if cfg.SellerPaidAmount, err = decimal.NewFromString(sellerPaid); err != nil {
		return comm.Config{}, err
	}
	if cfg.InstallerFreeRate, err = decimal.NewFromString(installerFree); err != nil {
		return comm.Config{}, err
	}
	if cfg.InstallerPaidRate, err = decimal.NewFromString(installerPaid); err != nil {
		return comm.Config{}, err
	}
	return cfg, nil
}

func GetCommissionConfig(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := getOrCreateConfig(r.Context(), db)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"config":  cfg,
		})
	}
}

// isAdminRequest honors the env-driven override first, the session role second.
func isAdminRequest(r *http.Request) bool {
	if v, ok := r.Context().Value("is_admin_override").(bool); ok && v {
		return true
	}
	return api.IsAdminRole(middlewares.GetRoleFromContext(r.Context()))
}

func UpdateCommissionConfig(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isAdminRequest(r) {
			api.RespondWithError(w, http.StatusForbidden, "Admin role required to update commission config")
			return
		}
		var req struct {
			UserID            string      `json:"user_id"`
			SellerFreeAmount  json.Number `json:"seller_free_amount"`
			SellerPaidAmount  json.Number `json:"seller_paid_amount"`
			InstallerFreeRate json.Number `json:"installer_free_rate"`
			InstallerPaidRate json.Number `json:"installer_paid_rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		parse := func(n json.Number) (decimal.Decimal, error) {
			d, err := decimal.NewFromString(n.String())
			if err != nil {
				return decimal.Decimal{}, err
			}
			if d.IsNegative() {
				return decimal.Decimal{}, errors.New("value must not be negative")
			}
			return d, nil
		}
		cfg := comm.Config{}
		var err error
		if cfg.SellerFreeAmount, err = parse(req.SellerFreeAmount); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid seller_free_amount: "+err.Error())
			return
		}
		if cfg.SellerPaidAmount, err = parse(req.SellerPaidAmount); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid seller_paid_amount: "+err.Error())
			return
		}
		if cfg.InstallerFreeRate, err = parse(req.InstallerFreeRate); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid installer_free_rate: "+err.Error())
			return
		}
		if cfg.InstallerPaidRate, err = parse(req.InstallerPaidRate); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid installer_paid_rate: "+err.Error())
			return
		}
		one := decimal.NewFromInt(1)
		if cfg.InstallerFreeRate.GreaterThan(one) || cfg.InstallerPaidRate.GreaterThan(one) {
			api.RespondWithError(w, http.StatusBadRequest, "Installer rates are fractions of the plan price and must not exceed 1")
			return
		}

		// Seed the row first so the update always has a target.
		if _, err := getOrCreateConfig(r.Context(), db); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		updatedBy := middlewares.GetUserNameFromContext(r.Context())
		_, err = db.Exec(r.Context(), `
			UPDATE commissionconfig SET
				seller_free_amount = $1,
				seller_paid_amount = $2,
				installer_free_rate = $3,
				installer_paid_rate = $4,
				updated_by = $5,
				updated_at = now()
		`, cfg.SellerFreeAmount.String(), cfg.SellerPaidAmount.String(), cfg.InstallerFreeRate.String(), cfg.InstallerPaidRate.String(), updatedBy)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.LogInfo("commission config updated by %s", updatedBy)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"config":  cfg,
		})
	}
}
