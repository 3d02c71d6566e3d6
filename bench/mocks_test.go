package bench

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRuntime mocks the Runtime interface.
type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) Name() string {
	return m.Called().String(0)
}

func (m *MockRuntime) Prepare(ctx context.Context, src Source) (Program, error) {
	args := m.Called(ctx, src)
	if p := args.Get(0); p != nil {
		return p.(Program), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProgram mocks the Program interface.
type MockProgram struct {
	mock.Mock
}

func (m *MockProgram) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProgram) Close() error {
	return m.Called().Error(0)
}
