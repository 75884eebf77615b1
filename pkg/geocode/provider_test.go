package geocode

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
	name string
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{name: name}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	args := m.Called(ctx, query)
	r, _ := args.Get(0).(*Result)
	return r, args.Error(1)
}
