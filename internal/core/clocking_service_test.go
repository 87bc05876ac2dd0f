package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"clockwise.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLogs struct {
	saved     []*model.ClockingLog
	saveErr   error
	lastList  LogFilter
	onDuty    int
	anomalies int
	since     time.Time
}

func (m *memLogs) Save(ctx context.Context, l *model.ClockingLog) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, l)
	return nil
}

func (m *memLogs) List(ctx context.Context, filter LogFilter) ([]*model.ClockingLog, error) {
	m.lastList = filter
	return m.saved, nil
}

func (m *memLogs) CountOnDuty(ctx context.Context) (int, error) {
	return m.onDuty, nil
}

func (m *memLogs) CountAnomaliesSince(ctx context.Context, since time.Time) (int, error) {
	m.since = since
	return m.anomalies, nil
}

type recordingPublisher struct {
	published []*model.ClockingLog
	err       error
}

func (p *recordingPublisher) PublishLogCreated(ctx context.Context, l *model.ClockingLog) error {
	p.published = append(p.published, l)
	return p.err
}

func newTestClockingService(logs *memLogs, pub *recordingPublisher, cls Classifier) *ClockingService {
	employees := newMemEmployees(&model.Employee{ID: "emp-1", Name: "Ada Lovelace", Status: model.StatusActive})
	return NewClockingService(NewRecorder(employees, cls), logs, employees, pub)
}

var validSubmission = model.ClockingSubmission{
	EmployeeID:   "emp-1",
	ClockInTime:  "2024-07-30T09:00:00Z",
	ClockOutTime: "2024-07-30T17:00:00Z",
}

func TestClockingService_Submit(t *testing.T) {
	t.Parallel()

	logs := &memLogs{}
	pub := &recordingPublisher{}
	svc := newTestClockingService(logs, pub, &fakeClassifier{verdict: normalVerdict()})

	got, err := svc.Submit(context.Background(), validSubmission)
	require.NoError(t, err)

	require.Len(t, logs.saved, 1)
	assert.Same(t, got, logs.saved[0])
	require.Len(t, pub.published, 1)
	assert.Equal(t, got.ID, pub.published[0].ID)
}

func TestClockingService_Submit_PublishFailureKeepsLog(t *testing.T) {
	t.Parallel()

	logs := &memLogs{}
	pub := &recordingPublisher{err: errors.New("queue down")}
	svc := newTestClockingService(logs, pub, &fakeClassifier{verdict: normalVerdict()})

	got, err := svc.Submit(context.Background(), validSubmission)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, logs.saved, 1)
}

func TestClockingService_Submit_SaveFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("disk full")
	pub := &recordingPublisher{}
	svc := newTestClockingService(&memLogs{saveErr: storeErr}, pub, &fakeClassifier{verdict: normalVerdict()})

	got, err := svc.Submit(context.Background(), validSubmission)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, pub.published)
}

func TestClockingService_Submit_RecorderFailureStoresNothing(t *testing.T) {
	t.Parallel()

	logs := &memLogs{}
	pub := &recordingPublisher{}
	svc := newTestClockingService(logs, pub, &fakeClassifier{err: errors.New("boom")})

	_, err := svc.Submit(context.Background(), validSubmission)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Empty(t, logs.saved)
	assert.Empty(t, pub.published)
}

func TestClockingService_ListLogs_Limits(t *testing.T) {
	t.Parallel()

	logs := &memLogs{}
	svc := newTestClockingService(logs, nil, &fakeClassifier{verdict: normalVerdict()})
	ctx := context.Background()

	_, err := svc.ListLogs(ctx, LogFilter{EmployeeID: " emp-1 "})
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLimit, logs.lastList.Limit)
	assert.Equal(t, "emp-1", logs.lastList.EmployeeID)

	_, err = svc.ListLogs(ctx, LogFilter{Limit: 10_000, AnomaliesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, MaxLogLimit, logs.lastList.Limit)
	assert.True(t, logs.lastList.AnomaliesOnly)

	_, err = svc.ListLogs(ctx, LogFilter{Limit: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClockingService_Stats(t *testing.T) {
	t.Parallel()

	logs := &memLogs{onDuty: 2, anomalies: 5}
	svc := newTestClockingService(logs, nil, &fakeClassifier{verdict: normalVerdict()})
	now := time.Date(2024, 7, 30, 12, 0, 0, 0, time.UTC)

	stats, err := svc.Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{TotalEmployees: 1, OnDuty: 2, AnomaliesLast24h: 5}, stats)
	assert.Equal(t, now.Add(-24*time.Hour), logs.since)
}
