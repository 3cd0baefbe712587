package api

import (
	"context"
	"strings"
)

// ctxNameList pulls one of the prevalidation list keys out of the context.
// The second return is false when the middleware did not run.
func ctxNameList(ctx context.Context, key, field string) ([]string, bool) {
	v := ctx.Value(key)
	if v == nil {
		return nil, false
	}
	list, ok := v.([]map[string]string)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, m := range list {
		if name := strings.TrimSpace(m[field]); name != "" {
			out = append(out, name)
		}
	}
	return out, true
}

func containsFold(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return true
		}
	}
	return false
}

// CtxHasApprovedSeller reports whether the seller name is in the preloaded
// approved list. A missing list means prevalidation did not run; allow and
// let the handler's own queries decide.
func CtxHasApprovedSeller(ctx context.Context, sellerName string) bool {
	sellerName = strings.TrimSpace(sellerName)
	if sellerName == "" {
		return false
	}
	names, ok := ctxNameList(ctx, "ApprovedSellers", "seller_name")
	if !ok {
		return true
	}
	return containsFold(names, sellerName)
}

func CtxHasApprovedPlan(ctx context.Context, planName string) bool {
	planName = strings.TrimSpace(planName)
	if planName == "" {
		return false
	}
	names, ok := ctxNameList(ctx, "ApprovedPlans", "plan_name")
	if !ok {
		return true
	}
	return containsFold(names, planName)
}

func CtxHasActiveZone(ctx context.Context, zoneName string) bool {
	zoneName = strings.TrimSpace(zoneName)
	if zoneName == "" {
		return false
	}
	names, ok := ctxNameList(ctx, "ActiveZones", "zone_name")
	if !ok {
		return true
	}
	return containsFold(names, zoneName)
}
