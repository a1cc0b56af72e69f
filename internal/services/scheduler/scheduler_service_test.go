package scheduler

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
	syncsvc "github.com/ternarybob/curator/internal/services/sync"
)

type stubSources struct {
	tenants    []string
	tenantsErr error
}

func (s *stubSources) SaveSource(*models.SourceConfig) error { return nil }
func (s *stubSources) GetSource(string) (*models.SourceConfig, error) {
	return nil, fmt.Errorf("not found")
}
func (s *stubSources) ListSources(string) ([]*models.SourceConfig, error) { return nil, nil }
func (s *stubSources) ListEnabledSources(string, models.SourceType) ([]*models.SourceConfig, error) {
	return nil, nil
}
func (s *stubSources) ListTenants() ([]string, error) { return s.tenants, s.tenantsErr }
func (s *stubSources) DeleteSource(string) error      { return nil }

func newTestService(sources *stubSources) *Service {
	runner := syncsvc.NewRunner(common.DefaultConfig(), nil, nil, nil, nil, common.GetLogger())
	return NewService(runner, sources, common.GetLogger()).(*Service)
}

func TestService_StartInvalidSchedule(t *testing.T) {
	s := newTestService(&stubSources{})

	err := s.Start("every now and then")
	require.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestService_StartStop(t *testing.T) {
	s := newTestService(&stubSources{})

	require.NoError(t, s.Start("0 */6 * * *"))
	assert.True(t, s.IsRunning())

	status := s.GetJobStatus()
	assert.Equal(t, jobName, status.Name)
	assert.Equal(t, "0 */6 * * *", status.Schedule)
	assert.NotNil(t, status.NextRun)
	assert.Nil(t, status.LastRun)

	// Second start while running is rejected
	require.Error(t, s.Start("0 */6 * * *"))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}

func TestService_ScheduledRunRecordsTenantListFailure(t *testing.T) {
	s := newTestService(&stubSources{tenantsErr: fmt.Errorf("store offline")})

	s.runScheduledSync()

	status := s.GetJobStatus()
	require.NotNil(t, status.LastRun)
	assert.Contains(t, status.LastError, "store offline")

	// A later clean run clears the error
	s.sources = &stubSources{}
	s.runScheduledSync()
	assert.Empty(t, s.GetJobStatus().LastError)
}

// Status requests read job state while the cron goroutine writes it; run
// under the race detector.
func TestService_StatusSafeDuringScheduledRun(t *testing.T) {
	s := newTestService(&stubSources{})
	require.NoError(t, s.Start("0 */6 * * *"))
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.GetJobStatus()
				s.IsRunning()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		s.runScheduledSync()
	}
	wg.Wait()
}
