package catalog

import (
	"regexp"
	"strings"
)

// Remote share paths have the shape //server/root/rest, where root is the
// second segment: a logical storage bucket (an SMB share) that can be renamed
// or moved independently of the server.

var sharePathPattern = regexp.MustCompile(`^//[^/]+/[^/]+/.*$`)

// ValidSharePath reports whether p matches //server/root/rest.
func ValidSharePath(p string) bool {
	return sharePathPattern.MatchString(p)
}

// SplitSharePath splits p into its server, root, and remaining segments.
// ok is false when p has fewer than the four leading slash-delimited parts
// a share path requires.
func SplitSharePath(p string) (server, root, rest string, ok bool) {
	parts := strings.SplitN(p, "/", 5)
	if len(parts) < 5 || parts[0] != "" || parts[1] != "" {
		return "", "", "", false
	}
	return parts[2], parts[3], parts[4], true
}

// JoinSharePath rebuilds a share path from its segments.
func JoinSharePath(server, root, rest string) string {
	return "//" + server + "/" + root + "/" + rest
}

// ReplaceRoot substitutes only the root segment of p, keeping the server and
// the remaining path structure. ok is false when p cannot be split.
func ReplaceRoot(p, newRoot string) (string, bool) {
	server, _, rest, ok := SplitSharePath(p)
	if !ok {
		return "", false
	}
	return JoinSharePath(server, newRoot, rest), true
}

// Root returns the root segment of p, or "" when p is empty or too short.
// Used to derive the file_folder field on read paths.
func Root(p string) string {
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// ParentDir returns everything before the final slash of p. The final
// segment of a pattern or file path is always separated by at least one
// slash in a share path.
func ParentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// BaseName returns the final segment of p.
func BaseName(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}
