package stage

import "fmt"

// ConfigError reports an invalid stage configuration. It is always raised
// before any filesystem mutation, so the caller can fix the configuration and
// retry without cleanup.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IOError wraps a filesystem failure with the stage operation and path that
// triggered it. The underlying error is preserved for errors.Is checks against
// fs.ErrNotExist and fs.ErrPermission.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// BackendError reports a failed invocation of an external collaborator (the
// bytecode compiler, the static checker, or the bundling backend).
type BackendError struct {
	Backend string
	Output  string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v\n%s", e.Backend, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
