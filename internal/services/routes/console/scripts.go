package console

import (
	"context"
	"os"
	"path/filepath"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
)

// maxScriptBytes bounds script files read for execute_script.
const maxScriptBytes = 1 << 20

// ReadScriptFile loads a script from the local filesystem. Relative names
// resolve against the working directory.
func ReadScriptFile(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Clean(name)
	info, err := os.Stat(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNotFound, "script not found: "+name, err)
	}
	if info.IsDir() {
		return "", apperrors.New(apperrors.CodeArgument, "script is a directory: "+name)
	}
	if info.Size() > maxScriptBytes {
		return "", apperrors.New(apperrors.CodeArgument, "script is too large: "+name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorage, "read script "+name, err)
	}
	return string(data), nil
}
