package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytmm-go/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteRequestRepository {
	t.Helper()
	repo, err := NewSQLiteRequestRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestRequest(userID int64, key string) *domain.Request {
	session := newTestSession(userID)
	res, _ := domain.LookupResolution(key)
	session.ChooseResolution(res)
	return domain.NewRequest(session)
}

func TestSQLiteRequestRepository_CreateAndFind(t *testing.T) {
	repo := setupTestRepo(t)

	req := newTestRequest(1, "720p")
	require.NoError(t, repo.Create(req))

	found, err := repo.FindByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.URL, found.URL)
	assert.Equal(t, "720p", found.Resolution)
	assert.Equal(t, "720", found.Height)
	assert.Equal(t, domain.StatusQueued, found.Status)

	_, err = repo.FindByID("missing")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteRequestRepository_UpdateTerminalState(t *testing.T) {
	repo := setupTestRepo(t)

	req := newTestRequest(1, "360p")
	require.NoError(t, repo.Create(req))

	req.MarkProcessing()
	req.MarkSent(1024)
	require.NoError(t, repo.Update(req))

	found, err := repo.FindByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, found.Status)
	assert.Equal(t, int64(1024), found.FileSizeBytes)
	require.NotNil(t, found.CompletedAt)
}

func TestSQLiteRequestRepository_FindByUserAndFilters(t *testing.T) {
	repo := setupTestRepo(t)

	first := newTestRequest(1, "360p")
	second := newTestRequest(1, "1080p")
	other := newTestRequest(2, "720p")
	other.MarkFailed(errors.New("boom"))
	for _, r := range []*domain.Request{first, second, other} {
		require.NoError(t, repo.Create(r))
	}

	mine, err := repo.FindByUser(1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	limited, err := repo.FindByUser(1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	failed, err := repo.FindAll(map[string]interface{}{"status": domain.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, other.ID, failed[0].ID)

	_, err = repo.FindAll(map[string]interface{}{"1=1; --": 1})
	assert.Error(t, err)
}

func TestSQLiteRequestRepository_ResetOrphanedAndStats(t *testing.T) {
	repo := setupTestRepo(t)

	queued := newTestRequest(1, "360p")
	processing := newTestRequest(2, "480p")
	processing.MarkProcessing()
	oversize := newTestRequest(3, "4K")
	oversize.MarkOversize(80 << 20)
	for _, r := range []*domain.Request{queued, processing, oversize} {
		require.NoError(t, repo.Create(r))
	}

	n, err := repo.ResetOrphaned()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	found, err := repo.FindByID(processing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, found.Status)
	assert.Equal(t, "interrupted by restart", found.ErrorMessage)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(1), stats.Oversize)
	assert.Equal(t, int64(0), stats.Queued)

	count, err := repo.CountByStatus(domain.StatusOversize)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.NoError(t, repo.Ping())
}
