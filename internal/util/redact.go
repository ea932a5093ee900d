package util

import "regexp"

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// redactions run in order; the key=value rule keeps the key name.
var redactions = []redaction{
	{regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|passwd|access_key|private_key|auth)\s*[:=]\s*([^\s"']+)`), `$1=[REDACTED]`},
	{regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED PRIVATE KEY]"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`), "[REDACTED JWT]"},
	{regexp.MustCompile(`(?i)sk-[a-z0-9_-]{20,}`), "[REDACTED KEY]"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "[REDACTED AWS KEY]"},
	{regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/-]{16,}=*`), "Bearer [REDACTED]"},
}

// RedactSecrets removes likely secrets from capability output before it is
// handed back to the model.
func RedactSecrets(input string) string {
	out := input
	for _, r := range redactions {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return out
}
