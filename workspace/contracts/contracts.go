package contracts

import "context"

// IDiagnostics is the boundary through which the engine surfaces messages.
// The engine never renders UI itself.
type IDiagnostics interface {
	// ShowWarning presents a warning. When options are given the user picks
	// one; the selected option is returned. With no options it returns "".
	ShowWarning(message string, options ...string) (string, error)

	// ShowError presents an error message.
	ShowError(message string)

	// ReportProgress advances a long-running operation by increment percent
	// with a short status message.
	ReportProgress(increment int, message string)
}

// IDirectoryProvider answers configuration and directory queries against
// the underlying build tool. Implementations cache answers until Refresh.
type IDirectoryProvider interface {
	GetConfigEntry(ctx context.Context, key string) (string, error)
	GetProfile(ctx context.Context) (string, error)
	GetBuildDir(ctx context.Context) (string, error)
	GetSrcDir(ctx context.Context) (string, error)
	GetDevelDir(ctx context.Context) (string, error)
	GetInstallDir(ctx context.Context) (string, error)

	// Refresh drops all cached answers, typically after a profile change.
	Refresh()
}

// ICommandRunner executes an external command and captures its output.
// Injected so tests can stub compiler and build-tool invocations.
type ICommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}
