package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
)

type fakeRegistry struct {
	ids      []string
	treasury string
}

func (f *fakeRegistry) Register(id string) {
	for _, existing := range f.ids {
		if existing == id {
			return
		}
	}
	f.ids = append(f.ids, id)
}

func (f *fakeRegistry) AccountIDs() []string { return append([]string(nil), f.ids...) }

func (f *fakeRegistry) Treasury() (string, bool) { return f.treasury, f.treasury != "" }

func (f *fakeRegistry) SetTreasury(id string) { f.treasury = id }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.BusinessError {
	t.Helper()
	require.Error(t, err)
	be, ok := domain.AsBusinessError(err)
	require.True(t, ok, "expected a BusinessError, got %T: %v", err, err)
	require.Equal(t, kind, be.Kind, "message: %s", be.Message)
	return be
}

func int64Ptr(v int64) *int64 { return &v }
