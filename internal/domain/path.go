package domain

import "strings"

const (
	// HomePath is the absolute path the virtual tree root is mounted at.
	HomePath = "/home/user"
	// HomeAlias is the display alias for HomePath.
	HomeAlias = "~"
	// ParentRef is the only relative navigation token the resolver understands.
	ParentRef = ".."
)

// SplitPath breaks a slash-separated path into its non-empty segments.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// JoinPath renders segments as an absolute path.
func JoinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// ParentPath strips the last segment of an absolute path. At HomePath it is a
// no-op.
func ParentPath(cwd string) string {
	if rel, ok := MountSegments(cwd); ok && len(rel) == 0 {
		return HomePath
	}
	segments := SplitPath(cwd)
	if len(segments) == 0 {
		return "/"
	}
	return JoinPath(segments[:len(segments)-1])
}

// AbsolutePath computes the absolute path an argument refers to relative to cwd.
// It only performs string manipulation; it never consults the tree.
func AbsolutePath(arg, cwd string) string {
	switch {
	case arg == "" || arg == HomeAlias:
		return HomePath
	case strings.HasPrefix(arg, HomeAlias+"/"):
		return HomePath + "/" + strings.TrimPrefix(arg, HomeAlias+"/")
	case strings.HasPrefix(arg, "/"):
		return arg
	case arg == ParentRef:
		return ParentPath(cwd)
	case cwd == "/":
		return "/" + arg
	default:
		return cwd + "/" + arg
	}
}

// MountSegments returns the segments of an absolute path relative to the tree
// mount. ok is false when the path lies outside HomePath.
func MountSegments(abs string) ([]string, bool) {
	segments := SplitPath(abs)
	if len(segments) < len(homeSegments) {
		return nil, false
	}
	for i, s := range homeSegments {
		if segments[i] != s {
			return nil, false
		}
	}
	return segments[len(homeSegments):], true
}

// DisplayPath renders an absolute path with HomePath shortened to "~".
func DisplayPath(abs string) string {
	if abs == HomePath {
		return HomeAlias
	}
	if strings.HasPrefix(abs, HomePath+"/") {
		return HomeAlias + strings.TrimPrefix(abs, HomePath)
	}
	return abs
}

var homeSegments = SplitPath(HomePath)
