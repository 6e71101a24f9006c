package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv expands environment references in raw configuration text before
// parsing, so secrets such as the redis password never live in the file.
//
// Semantics:
//   - `${VAR}` is replaced with the variable's value and errors if VAR is
//     not set.
//   - `$$` emits a literal `$`.
func expandEnv(s string) (string, error) {
	const literalDollar = "\x00relaygate.dollar\x00"
	s = strings.ReplaceAll(s, "$$", literalDollar)

	missing := make(map[string]struct{})
	s = envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		key := ref[2 : len(ref)-1]
		val, ok := os.LookupEnv(key)
		if !ok {
			missing[key] = struct{}{}
			return ref
		}
		return val
	})
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(keys, ", "))
	}

	return strings.ReplaceAll(s, literalDollar, "$"), nil
}
