package capability

import (
	"path/filepath"
	"strings"
)

// IsDenylisted returns true if the file path should never be read or written.
func IsDenylisted(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	base := strings.ToLower(filepath.Base(path))

	if strings.HasPrefix(base, ".env") {
		return true
	}
	for _, suffix := range []string{".pem", ".key", ".p12", ".pfx", ".kdbx"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	if strings.HasPrefix(base, "id_rsa") || strings.HasPrefix(base, "id_ed25519") || strings.HasPrefix(base, "id_ecdsa") {
		return true
	}
	if base == ".npmrc" || base == ".netrc" || base == ".pgpass" {
		return true
	}
	for _, part := range []string{".aws/credentials", ".docker/config.json", ".ssh/", ".git/"} {
		if strings.Contains(lower, part) || strings.HasSuffix(lower+"/", part) {
			return true
		}
	}
	return false
}
