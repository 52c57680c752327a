package cursor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

type mockStore struct {
	value   string
	saves   []string
	loadErr error
	saveErr error
}

func (m *mockStore) Load(ctx context.Context) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if m.value == "" {
		return models.EpochWatermark, nil
	}
	return m.value, nil
}

func (m *mockStore) Save(ctx context.Context, watermark string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, watermark)
	m.value = watermark
	return nil
}

func (m *mockStore) Close() error { return nil }

func TestAdvance_Monotonic(t *testing.T) {
	store := &mockStore{value: "2024-01-02 10:00:00"}
	svc := NewService(store, arbor.NewLogger())
	ctx := context.Background()

	tests := []struct {
		candidate string
		changed   bool
		want      string
	}{
		{candidate: "2024-01-01 00:00:00", changed: false, want: "2024-01-02 10:00:00"},
		{candidate: "2024-01-02 10:00:00", changed: false, want: "2024-01-02 10:00:00"},
		{candidate: "", changed: false, want: "2024-01-02 10:00:00"},
		{candidate: "2024-01-03 09:00:00", changed: true, want: "2024-01-03 09:00:00"},
	}

	for _, tt := range tests {
		changed, err := svc.Advance(ctx, tt.candidate)
		require.NoError(t, err)
		assert.Equal(t, tt.changed, changed, "candidate %q", tt.candidate)

		got, err := svc.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, []string{"2024-01-03 09:00:00"}, store.saves)
}

func TestAdvance_FromEpoch(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, arbor.NewLogger())

	changed, err := svc.Advance(context.Background(), "2024-01-02 10:00:00")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestAdvance_PropagatesErrors(t *testing.T) {
	svc := NewService(&mockStore{loadErr: errors.New("disk gone")}, arbor.NewLogger())
	_, err := svc.Advance(context.Background(), "2024-01-02 10:00:00")
	assert.Error(t, err)

	svc = NewService(&mockStore{saveErr: errors.New("read only")}, arbor.NewLogger())
	_, err = svc.Advance(context.Background(), "2024-01-02 10:00:00")
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	store := &mockStore{value: "2024-01-02 10:00:00"}
	svc := NewService(store, arbor.NewLogger())

	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, models.EpochWatermark, store.value)
}
