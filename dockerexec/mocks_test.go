package dockerexec

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/benchtab/internal/docker"
)

// MockExecer mocks the Execer interface.
type MockExecer struct {
	mock.Mock
}

func (m *MockExecer) Exec(ctx context.Context, containerID string, opts docker.ExecOpts) (*docker.ExecResult, error) {
	args := m.Called(ctx, containerID, opts)
	if res := args.Get(0); res != nil {
		return res.(*docker.ExecResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExecer) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	args := m.Called(ctx, containerID)
	return args.Bool(0), args.Error(1)
}
