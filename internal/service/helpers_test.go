package service_test

import (
	"sync"
	"testing"

	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	"github.com/ndeks/nextlevel-backend/internal/repository/postgres"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/ndeks/nextlevel-backend/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentNotification struct {
	target string
	n      notify.Notification
}

// fakeNotifier accepts every device token except those in rejected.
type fakeNotifier struct {
	mu       sync.Mutex
	rejected map[string]bool
	topicErr error
	sent     []sentNotification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{rejected: make(map[string]bool)}
}

func (f *fakeNotifier) reject(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[token] = true
}

func (f *fakeNotifier) Send(deviceToken string, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejected[deviceToken] {
		return notify.ErrUnknownDevice
	}
	f.sent = append(f.sent, sentNotification{target: deviceToken, n: n})
	return nil
}

func (f *fakeNotifier) SendMulticast(deviceTokens []string, n notify.Notification) ([]notify.Result, int, error) {
	results := make([]notify.Result, 0, len(deviceTokens))
	delivered := 0
	for _, token := range deviceTokens {
		if err := f.Send(token, n); err != nil {
			results = append(results, notify.Result{DeviceToken: token, Error: err.Error()})
			continue
		}
		results = append(results, notify.Result{DeviceToken: token})
		delivered++
	}
	return results, delivered, nil
}

func (f *fakeNotifier) SendTopic(topic string, n notify.Notification) (int, error) {
	if !notify.ValidTopic(topic) {
		return 0, notify.ErrInvalidTopic
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topicErr != nil {
		return 0, f.topicErr
	}
	f.sent = append(f.sent, sentNotification{target: "topic:" + topic, n: n})
	return 1, nil
}

func (f *fakeNotifier) sentTo(target string) []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Notification
	for _, s := range f.sent {
		if s.target == target {
			out = append(out, s.n)
		}
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	repos    *repository.Repositories
	services *service.Services
	notifier *fakeNotifier
	codec    *token.Codec
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	reg := prometheus.NewRegistry()
	notifier := newFakeNotifier()
	repos := postgres.NewRepositories(db)
	codec := testutil.NewCodec(t, cfg)

	return &testEnv{
		db:       db,
		repos:    repos,
		services: service.NewServices(repos, codec, notifier, cfg, testutil.DiscardLogger(), metrics.New(reg)),
		notifier: notifier,
		codec:    codec,
		registry: reg,
	}
}

// auditEntries returns the stored entries for action, oldest first.
func (e *testEnv) auditEntries(t *testing.T, action domain.AuditAction) []domain.AuditLogEntry {
	t.Helper()

	var entries []domain.AuditLogEntry
	require.NoError(t, e.db.Where("action = ?", action).Order("created_at ASC").Find(&entries).Error)
	return entries
}

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func principalOf(user *domain.User) *domain.Principal {
	return &domain.Principal{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
}

func ptr[T any](v T) *T {
	return &v
}
