package engine

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoonSniper/pkg/model"
	"MoonSniper/pkg/store"
)

type fakeFetcher struct {
	table model.MetricsTable
	err   error
}

func (f *fakeFetcher) FetchAll() (model.MetricsTable, error) {
	return f.table, f.err
}

type fakeDispatcher struct {
	triggers []model.Trigger
}

func (d *fakeDispatcher) Dispatch(trigger model.Trigger) []model.NotificationRecord {
	d.triggers = append(d.triggers, trigger)
	return []model.NotificationRecord{{
		Channel:   trigger.Rule.Channel,
		Recipient: "test",
		Status:    "sent",
	}}
}

type fakeHistory struct {
	events  []*model.AlertEvent
	records []model.NotificationRecord
}

func (h *fakeHistory) SaveAlertEvent(event *model.AlertEvent) error {
	event.ID = fmt.Sprintf("event-%d", len(h.events)+1)
	h.events = append(h.events, event)
	return nil
}

func (h *fakeHistory) SaveNotificationRecords(records []model.NotificationRecord) error {
	h.records = append(h.records, records...)
	return nil
}

type fakePublisher struct {
	events []*model.AlertEvent
}

func (p *fakePublisher) PublishAlert(event *model.AlertEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newEngineStore(t *testing.T, doc *model.AlertDocument) *store.Store {
	t.Helper()
	s := store.NewStore(filepath.Join(t.TempDir(), "alerts.json"))
	require.NoError(t, s.Save(doc))
	return s
}

func TestRunPass_ConsumesAndDispatches(t *testing.T) {
	doc := model.NewAlertDocument()
	doc.Tickers["AAPL"] = []model.AlertRule{{
		ID:         "aapl_desktop1",
		Expression: "RSI < 30",
		Message:    "超卖",
		Channel:    model.ChannelDesktop,
	}}
	s := newEngineStore(t, doc)

	fetcher := &fakeFetcher{table: model.MetricsTable{
		{"Ticker": "AAPL", "RSI": 25.0},
	}}
	dispatcher := &fakeDispatcher{}
	history := &fakeHistory{}
	publisher := &fakePublisher{}

	eng := NewEngine(s, fetcher, dispatcher, history, publisher, time.Minute)
	require.NoError(t, eng.RunPass())

	// 触发后规则被消费，文档写回
	saved, err := s.Load()
	require.NoError(t, err)
	assert.NotContains(t, saved.Tickers, "AAPL")

	require.Len(t, dispatcher.triggers, 1)
	assert.Equal(t, "aapl_desktop1", dispatcher.triggers[0].Rule.ID)

	require.Len(t, history.events, 1)
	assert.Equal(t, "AAPL", history.events[0].Ticker)
	require.Len(t, history.records, 1)
	assert.Equal(t, "event-1", history.records[0].EventID)

	require.Len(t, publisher.events, 1)

	// 第二轮同样的指标表不再触发
	require.NoError(t, eng.RunPass())
	assert.Len(t, dispatcher.triggers, 1)
}

func TestRunPass_ScannerMemoryPersists(t *testing.T) {
	doc := model.NewAlertDocument()
	doc.Scanners = []model.AlertRule{{
		ID:         "scanner_desktop1",
		Expression: "Volume > 1000000",
		Message:    "放量",
		Channel:    model.ChannelDesktop,
	}}
	s := newEngineStore(t, doc)

	fetcher := &fakeFetcher{table: model.MetricsTable{
		{"Ticker": "TSLA", "Volume": 2000000.0},
	}}
	dispatcher := &fakeDispatcher{}

	eng := NewEngine(s, fetcher, dispatcher, nil, nil, time.Minute)
	require.NoError(t, eng.RunPass())
	require.NoError(t, eng.RunPass())

	// triggered写进文档，第二轮被跳过
	assert.Len(t, dispatcher.triggers, 1)

	saved, err := s.Load()
	require.NoError(t, err)
	require.Len(t, saved.Scanners, 1)
	assert.Equal(t, []string{"TSLA"}, saved.Scanners[0].Triggered)
}

func TestRunPass_FetchErrorAbortsPass(t *testing.T) {
	doc := model.NewAlertDocument()
	doc.Tickers["AAPL"] = []model.AlertRule{{
		ID:         "aapl_desktop1",
		Expression: "RSI < 30",
		Message:    "超卖",
		Channel:    model.ChannelDesktop,
	}}
	s := newEngineStore(t, doc)

	fetcher := &fakeFetcher{err: fmt.Errorf("行情接口超时")}
	dispatcher := &fakeDispatcher{}

	eng := NewEngine(s, fetcher, dispatcher, nil, nil, time.Minute)
	assert.Error(t, eng.RunPass())
	assert.Empty(t, dispatcher.triggers)

	// 文档原样保留
	saved, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, saved.Tickers["AAPL"], 1)
}
