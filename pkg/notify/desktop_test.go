package notify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoonSniper/pkg/model"
)

func TestDesktop_BodyFormat(t *testing.T) {
	var gotTitle, gotBody string
	n := NewDesktopNotifier("Moon Sniper")
	n.send = func(title, body string) error {
		gotTitle = title
		gotBody = body
		return nil
	}

	records := n.Notify(model.Trigger{
		Rule:   model.AlertRule{ID: "aapl_desktop1", Message: "RSI跌破30"},
		Ticker: "AAPL",
	})

	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
	assert.Contains(t, gotTitle, "Moon Sniper Alert")
	assert.Equal(t, "AAPL - RSI跌破30", gotBody)
}

func TestDesktop_TruncatesLongBody(t *testing.T) {
	var gotBody string
	n := NewDesktopNotifier("Moon Sniper")
	n.send = func(title, body string) error {
		gotBody = body
		return nil
	}

	n.Notify(model.Trigger{
		Rule:   model.AlertRule{Message: strings.Repeat("x", 300)},
		Ticker: "AAPL",
	})

	assert.Len(t, []rune(gotBody), 250)
	assert.True(t, strings.HasSuffix(gotBody, "..."))
}

func TestDesktop_FailureLoggedNotFatal(t *testing.T) {
	n := NewDesktopNotifier("Moon Sniper")
	n.send = func(title, body string) error {
		return fmt.Errorf("没有通知后端")
	}

	records := n.Notify(model.Trigger{
		Rule:   model.AlertRule{Message: "test"},
		Ticker: "AAPL",
	})

	require.Len(t, records, 1)
	assert.Equal(t, "failed", records[0].Status)
	assert.NotEmpty(t, records[0].Error)
}
