package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Write(ctx context.Context, e Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestDispatcher_RoutesKinds(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(zap.NewNop(), rec)

	d.Report("store.load", errors.New("disk gone"))
	d.Notify("Purchase Order PO # 00001-2024 saved successfully!")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, KindDiagnostic, entries[0].Kind)
	assert.Equal(t, "store.load", entries[0].Event)
	assert.Equal(t, "disk gone", entries[0].Message)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, []string{"Purchase Order PO # 00001-2024 saved successfully!"}, rec.Messages())
	assert.Equal(t, []string{"store.load"}, rec.Events())
}

func TestDispatcher_SinkFailureIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := new(MockSink)
	sink.On("Write", mock.Anything, mock.AnythingOfType("notify.Entry")).Return(errors.New("redis down"))

	d := NewDispatcher(zap.New(core), sink)
	assert.NotPanics(t, func() { d.Notify("hello") })

	sink.AssertExpectations(t)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "notification sink failed", logs.All()[0].Message)
}

func TestComposite_CollectsErrors(t *testing.T) {
	ok := NewRecorder()
	bad := new(MockSink)
	bad.On("Write", mock.Anything, mock.Anything).Return(errors.New("boom"))

	c := NewComposite(ok, nil, bad)
	err := c.Write(context.Background(), NewEntry(KindNotification, "", "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, ok.Entries(), 1, "healthy sinks still receive the entry")

	assert.NoError(t, NewComposite().Write(context.Background(), NewEntry(KindNotification, "", "x")))
}

func TestLogSink_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDispatcher(zap.NewNop(), NewLogSink(zap.New(core)))

	d.Report("store.persist", errors.New("quota exceeded"))
	d.Notify("Purchase Order PO # 00002-2024 loaded.")

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.ErrorLevel, all[0].Level)
	assert.Equal(t, "store.persist", all[0].ContextMap()["event"])
	assert.Equal(t, zapcore.InfoLevel, all[1].Level)
	assert.Equal(t, "Purchase Order PO # 00002-2024 loaded.", all[1].Message)
}

func TestFileSink_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifications.log")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	d := NewDispatcher(zap.NewNop(), sink)
	d.Notify("first")
	d.Report("store.decode", errors.New("unexpected end of JSON input"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &e))
	assert.Equal(t, KindDiagnostic, e.Kind)
	assert.Equal(t, "store.decode", e.Event)

	_, err = NewFileSink("  ")
	assert.Error(t, err)
}

func TestRecorder_Drain(t *testing.T) {
	rec := NewRecorder()
	rec.Notify("a")
	rec.Report("store.load", nil)

	drained := rec.Drain()
	assert.Len(t, drained, 2)
	assert.Empty(t, rec.Entries())
}

func TestBoundedRecorder_KeepsNewest(t *testing.T) {
	rec := NewBoundedRecorder(2)
	rec.Notify("one")
	rec.Notify("two")
	rec.Notify("three")
	assert.Equal(t, []string{"two", "three"}, rec.Messages())
}

func TestConfirmers(t *testing.T) {
	assert.True(t, StaticConfirmer(true).Confirm("?"))
	assert.False(t, StaticConfirmer(false).Confirm("?"))

	var asked string
	f := ConfirmerFunc(func(m string) bool { asked = m; return true })
	assert.True(t, f.Confirm("delete?"))
	assert.Equal(t, "delete?", asked)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "yes", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
		{input: "maybe\n", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPromptConfirmer(bufio.NewReader(strings.NewReader(tt.input)), &out)
		assert.Equal(t, tt.want, p.Confirm("Are you sure?"), "input %q", tt.input)
		assert.Equal(t, "Are you sure? [y/N] ", out.String())
	}
}
