// Package macro expands $NAME and ${NAME} references in configuration text.
package macro

import (
	"regexp"
)

// tokenRegex matches $NAME or ${NAME}. Braced names may also contain dots.
var tokenRegex = regexp.MustCompile(`\$([A-Za-z0-9_]+|\{[A-Za-z0-9_.]+\})`)

// Expand replaces every token whose name is present in vars. Unknown tokens
// are left untouched.
func Expand(s string, vars map[string]string) string {
	if s == "" || len(vars) == 0 {
		return s
	}
	return tokenRegex.ReplaceAllStringFunc(s, func(token string) string {
		name := token[1:]
		if name[0] == '{' {
			name = name[1 : len(name)-1]
		}
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// Resolve expands s against env first and then runs a second pass against
// the build variables over the already expanded text. Environment names that
// are also build variables are skipped in the first pass so the build
// variable wins. A nil input stays nil.
func Resolve(s *string, env, vars map[string]string) *string {
	if s == nil {
		return nil
	}
	out := Expand(*s, unshadowed(env, vars))
	out = Expand(out, vars)
	return &out
}

func unshadowed(env, vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return env
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if _, ok := vars[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// ResolveString is Resolve for callers that do not distinguish an absent
// field from an empty one.
func ResolveString(s string, env, vars map[string]string) string {
	return *Resolve(&s, env, vars)
}
