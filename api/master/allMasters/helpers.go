package allMaster

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newMasterID builds a prefixed short id, e.g. "S" + 8 hex chars
func newMasterID(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
}

func getNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func getNullTime(nt sql.NullTime) string {
	if nt.Valid {
		return nt.Time.Format("2006-01-02 15:04:05")
	}
	return ""
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}
