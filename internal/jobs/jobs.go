// Package jobs names and routes the API's asynchronous jobs. Every job ID
// is a typed prefix plus 32 random hex characters, so IDs are
// non-enumerable and a bare ID pasted into a URL still resolves: ParseRoute
// re-attaches the prefix when the client omits it.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog/log"
)

// Job ID prefixes. The prefix doubles as the job's type tag in routes,
// store keys, and logs.
const (
	// CompareIDPrefix marks comparison-pipeline jobs.
	CompareIDPrefix = "cmp-"

	// BundleIDPrefix marks ZIP download-bundle jobs.
	BundleIDPrefix = "dl-"
)

// NewCompareID returns a fresh comparison job ID.
func NewCompareID() string {
	return newID(CompareIDPrefix)
}

// NewBundleID returns a fresh download-bundle job ID.
func NewBundleID() string {
	return newID(BundleIDPrefix)
}

func newID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msgf("Failed to generate random %s job ID", prefix)
	}
	return prefix + hex.EncodeToString(b)
}

// ParseRoute extracts the job ID and action from a URL path like
// /api/compare/{id}/{action}. apiPrefix should be like "/api/compare/",
// idPrefix one of the package's ID prefixes. Returns the normalized job ID
// and action, or ok=false if the path is invalid.
func ParseRoute(path, apiPrefix, idPrefix string) (jobID, action string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	if len(parts) < 2 {
		return "", "", false
	}

	jobID = parts[0]
	if !strings.HasPrefix(jobID, idPrefix) {
		jobID = idPrefix + jobID
	}
	return jobID, parts[1], true
}
