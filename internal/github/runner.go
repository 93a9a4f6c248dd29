package github

import "os/exec"

// CommandRunner is an interface for executing system commands
// This abstraction allows us to mock git invocations in tests
type CommandRunner interface {
	// RunInDir executes a command in a specific directory and returns the
	// combined output. An empty dir runs in the process working directory.
	RunInDir(dir, name string, args ...string) ([]byte, error)
}

// RealCommandRunner is the production implementation using os/exec
type RealCommandRunner struct{}

// RunInDir executes a command in a specific directory
func (r *RealCommandRunner) RunInDir(dir, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// MockCommandRunner is a test implementation that returns predefined responses
type MockCommandRunner struct {
	// RunInDirFunc is called when RunInDir is invoked
	RunInDirFunc func(dir, name string, args ...string) ([]byte, error)

	// Calls tracks all command invocations
	Calls []MockCall
}

// MockCall represents a single command invocation
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

// RunInDir records the call and executes the mock function
func (m *MockCommandRunner) RunInDir(dir, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Dir: dir, Name: name, Args: args})

	if m.RunInDirFunc != nil {
		return m.RunInDirFunc(dir, name, args...)
	}

	return []byte(""), nil
}
