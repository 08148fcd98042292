package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	"github.com/szooyang/ai-project01/internal/shared/testutil"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockLoader is a testify mock for DatasetLoader.
type MockLoader struct {
	mock.Mock
	scope domain.MonthScope
}

func (m *MockLoader) Load(ctx context.Context, path string) (*dataprocessing.Dataset, error) {
	args := m.Called(ctx, path)
	ds, _ := args.Get(0).(*dataprocessing.Dataset)
	return ds, args.Error(1)
}

func (m *MockLoader) Scope() domain.MonthScope { return m.scope }

func (m *MockLoader) Encodings() []string { return []string{"cp949", "utf-8-sig"} }

// MockDatasetProvider is a testify mock for DatasetProvider.
type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) Dataset(ctx context.Context) (*dataprocessing.Dataset, error) {
	args := m.Called(ctx)
	ds, _ := args.Get(0).(*dataprocessing.Dataset)
	return ds, args.Error(1)
}

func (m *MockDatasetProvider) Current() (domain.DatasetInfo, bool) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Bool(1)
}

// newSampleCache writes the sample month as CP949 and wraps it in a real cache.
func newSampleCache(t *testing.T) *DatasetCache {
	t.Helper()
	path := testutil.WriteCP949CSV(t, "subway.csv", testutil.SampleMonth()...)
	ingestor := dataprocessing.NewIngestor(dataprocessing.WithLogger(quietLogger()))
	cache, err := NewDatasetCache(ingestor, path, WithCacheLogger(quietLogger()))
	require.NoError(t, err)
	return cache
}
