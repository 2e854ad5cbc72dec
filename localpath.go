package storeresolve

import (
	"errors"
	"os"
	"strings"
)

var osGetwd = os.Getwd

var errMissingDrive = errors.New("missing drive marker")

// splitLocal splits an absolute path into the root a LocalStore is opened at
// and the forward-slash object path below it.
func splitLocal(path string, driveLetters bool) (root, objectPath string, err error) {
	if driveLetters {
		return splitDrive(path)
	}
	return "/", normalizeObjectPath(path), nil
}

// splitDrive takes everything up to and including the first `:\` or `:/` as root.
func splitDrive(path string) (string, string, error) {
	i := firstDriveMarker(path)
	if i < 0 {
		return "", "", newError(KindInvalidLocalPath, path, errMissingDrive)
	}
	return path[:i+2], normalizeObjectPath(path[i+2:]), nil
}

func firstDriveMarker(path string) int {
	back := strings.Index(path, `:\`)
	fwd := strings.Index(path, ":/")
	switch {
	case back < 0:
		return fwd
	case fwd < 0:
		return back
	default:
		return min(back, fwd)
	}
}

func normalizeObjectPath(rel string) string {
	return strings.TrimLeft(strings.ReplaceAll(rel, `\`, "/"), "/")
}
