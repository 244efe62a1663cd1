package meta

import (
	"strings"
	"unicode"
)

const envPrefix = "${env."

// expandEnvExpr replaces all occurrences of ${env.KEY} in value with
// lookup(KEY). A key made of anything other than letters, digits or '_'
// leaves the prefix literal; an unterminated expression is kept as is.
func expandEnvExpr(value string, lookup func(string) string) string {
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], envPrefix)
		if idx < 0 {
			b.WriteString(value[i:])
			break
		}
		b.WriteString(value[i : i+idx])
		startKey := i + idx + len(envPrefix)
		endKey := strings.IndexByte(value[startKey:], '}')
		if endKey < 0 {
			b.WriteString(value[i+idx:])
			break
		}
		key := value[startKey : startKey+endKey]
		if !isEnvKey(key) {
			// rescan right after the prefix so nested expressions expand
			b.WriteString(envPrefix)
			i = startKey
			continue
		}
		if key != "" {
			b.WriteString(lookup(key))
		}
		i = startKey + endKey + 1
	}
	return b.String()
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
