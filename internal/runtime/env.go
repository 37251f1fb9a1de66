// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"runtime"
	"strings"
)

// PrependPath returns a copy of env with dir placed first on PATH. The PATH
// key is matched case-insensitively on Windows, where it is usually "Path".
// When env has no PATH entry one is added.
func PrependPath(env []string, dir string) []string {
	return prependPathFor(env, dir, runtime.GOOS == "windows")
}

func prependPathFor(env []string, dir string, caseInsensitive bool) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if ok && !found && (key == "PATH" || (caseInsensitive && strings.EqualFold(key, "PATH"))) {
			found = true
			if value == "" {
				out = append(out, key+"="+dir)
			} else {
				out = append(out, key+"="+dir+string(os.PathListSeparator)+value)
			}
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+dir)
	}
	return out
}

// SetEnv returns a copy of env with key set to value, replacing any
// existing entries for key.
func SetEnv(env []string, key, value string) []string {
	out := make([]string, 0, len(env)+1)
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+value)
}

// UnsetEnv returns a copy of env without entries for key.
func UnsetEnv(env []string, key string) []string {
	out := make([]string, 0, len(env))
	prefix := key + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return out
}
