package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, qos byte, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestMQTTNotifier_PublishesJSONEvents(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTTNotifier(pub, "directory/events", 1, zap.NewNop())
	n.now = func() time.Time { return time.Unix(1700000000, 0) }

	n.Progress(1, 3, "rooms.csv")
	n.Error("bad.pdf", errors.New("unsupported file type"))
	n.Refresh("merge")

	require.Len(t, pub.payloads, 3)
	assert.Equal(t, []string{"directory/events", "directory/events", "directory/events"}, pub.topics)

	var ev Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, Event{Kind: "progress", Item: "rooms.csv", Done: 1, Total: 3, Timestamp: 1700000000}, ev)

	require.NoError(t, json.Unmarshal(pub.payloads[1], &ev))
	assert.Equal(t, "error", ev.Kind)
	assert.Equal(t, "unsupported file type", ev.Message)

	require.NoError(t, json.Unmarshal(pub.payloads[2], &ev))
	assert.Equal(t, "refresh", ev.Kind)
	assert.Equal(t, "merge", ev.Message)
}

// MockPublisher 是 Publisher 的 mock 实现
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, qos byte, payload []byte) error {
	args := m.Called(topic, qos, payload)
	return args.Error(0)
}

func TestMQTTNotifier_PublishErrorIsSwallowed(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", "t", byte(0), mock.Anything).Return(errors.New("broker down")).Once()

	n := NewMQTTNotifier(pub, "t", 0, zap.NewNop())
	assert.NotPanics(t, func() { n.Refresh("x") })
	pub.AssertExpectations(t)
}

// MockNotifier 是 Notifier 的 mock 实现
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Progress(done, total int, item string) { m.Called(done, total, item) }
func (m *MockNotifier) Error(item string, err error)         { m.Called(item, err) }
func (m *MockNotifier) Refresh(reason string)                { m.Called(reason) }

func TestMulti_FansOut(t *testing.T) {
	boom := errors.New("e")
	a, b := new(MockNotifier), new(MockNotifier)
	for _, n := range []*MockNotifier{a, b} {
		n.On("Progress", 1, 1, "x").Once()
		n.On("Error", "x", boom).Once()
		n.On("Refresh", "r").Once()
	}

	m := Multi{a, b, Nop{}, NewLogNotifier(zap.NewNop())}
	m.Progress(1, 1, "x")
	m.Error("x", boom)
	m.Refresh("r")

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestPaletteAssigner(t *testing.T) {
	p := &PaletteAssigner{Palette: []string{"red", "blue"}}
	existing := map[string]string{}
	existing["A"] = p.Assign("A", existing)
	existing["B"] = p.Assign("B", existing)
	existing["C"] = p.Assign("C", existing)
	assert.Equal(t, map[string]string{"A": "red", "B": "blue", "C": "red"}, existing)
	assert.Equal(t, "blue", p.Assign("B", existing))
}
