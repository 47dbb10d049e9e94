package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday/internal/domain/user"
)

// rolePrecedence orders known roles from least to most privileged.
var rolePrecedence = []user.Role{
	user.RoleOperator,
	user.RoleIngestor,
	user.RoleVerifier,
	user.RoleAdmin,
}

// strongestRole picks the most privileged known role. Unknown roles are ignored.
func strongestRole(roles []string) user.Role {
	best := -1
	for _, raw := range roles {
		role := user.Role(strings.ToLower(strings.TrimSpace(raw)))
		for rank, known := range rolePrecedence {
			if role == known && rank > best {
				best = rank
			}
		}
	}
	if best < 0 {
		return ""
	}
	return rolePrecedence[best]
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errAnubisTransient)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
