// internal/app/features/exports/filename.go
package exports

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitize keeps only [A-Za-z0-9_-]. An empty result becomes "unknown".
func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return "unknown"
	}
	return s
}

// FileName builds leads_<tenant>_<user>_<yyyymmddHHMMSS>_<8 hex>.<ext>.
func FileName(tenantID, userID string, at time.Time, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "leads_" + sanitize(tenantID) + "_" + sanitize(userID) + "_" +
		at.Format("20060102150405") + "_" + suffix + "." + ext
}
