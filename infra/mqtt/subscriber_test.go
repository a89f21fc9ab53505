package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunpeak/dispatchd/internal/eventbus"
)

// mockClient implements pahoClient and enough of paho.Client for OnConnect.
type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic   string
		qos     byte
		handler paho.MessageHandler
	}
	disconnected bool
	connectErr   error
}

func (m *mockClient) IsConnected() bool { return !m.disconnected }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic   string
		qos     byte
		handler paho.MessageHandler
	}{topic, qos, cb})
	return &dummyToken{}
}
func (m *mockClient) Publish(string, byte, bool, interface{}) paho.Token { return &dummyToken{} }
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func withMock(t *testing.T) *mockClient {
	t.Helper()
	mc := &mockClient{}
	orig := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = orig })
	return mc
}

func newTestSubscriber(t *testing.T, bus *eventbus.Bus) (*Subscriber, *mockClient) {
	t.Helper()
	mc := withMock(t)
	sub, err := NewSubscriber(Config{Broker: "tcp://localhost:1883", QoS: 1}, bus)
	require.NoError(t, err)
	return sub, mc
}

func TestSubscriberSubscribesOnConnect(t *testing.T) {
	sub, mc := newTestSubscriber(t, nil)
	defer sub.Close()

	require.Len(t, mc.subscribed, 2)
	assert.Equal(t, "plant/telemetry", mc.subscribed[0].topic)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)
	assert.Equal(t, "plant/weather", mc.subscribed[1].topic)
}

func TestSubscriberLatestTelemetry(t *testing.T) {
	sub, mc := newTestSubscriber(t, nil)
	defer sub.Close()

	tel, wx := sub.Latest()
	assert.Nil(t, tel)
	assert.Nil(t, wx)

	mc.subscribed[0].handler(nil, mockMessage{
		topic: "plant/telemetry",
		p:     []byte(`{"soc_fraction":0.42,"max_charge_mw":4.5}`),
	})
	mc.subscribed[1].handler(nil, mockMessage{
		topic: "plant/weather",
		p:     []byte(`{"temp_c":31.5,"cloud_pct":20}`),
	})

	tel, wx = sub.Latest()
	require.NotNil(t, tel)
	require.NotNil(t, tel.SoCFraction)
	assert.InDelta(t, 0.42, *tel.SoCFraction, 1e-9)
	assert.Nil(t, tel.MaxDischargeMW)
	assert.False(t, tel.ReportedAt.IsZero())
	require.NotNil(t, wx)
	assert.InDelta(t, 31.5, wx.TempC, 1e-9)
}

func TestSubscriberIgnoresMalformedPayload(t *testing.T) {
	sub, mc := newTestSubscriber(t, nil)
	defer sub.Close()

	mc.subscribed[0].handler(nil, mockMessage{p: []byte(`not json`)})
	tel, _ := sub.Latest()
	assert.Nil(t, tel)
}

func TestSubscriberStaleness(t *testing.T) {
	sub, mc := newTestSubscriber(t, nil)
	defer sub.Close()

	now := time.Now()
	sub.nowFunc = func() time.Time { return now }
	mc.subscribed[0].handler(nil, mockMessage{p: []byte(`{"soc_fraction":0.5}`)})

	tel, _ := sub.Latest()
	require.NotNil(t, tel)

	sub.nowFunc = func() time.Time { return now.Add(staleAfter + time.Second) }
	tel, _ = sub.Latest()
	assert.Nil(t, tel)
}

func TestSubscriberPublishesEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	ch := bus.Subscribe()

	sub, mc := newTestSubscriber(t, bus)
	defer sub.Close()

	mc.subscribed[0].handler(nil, mockMessage{p: []byte(`{"soc_fraction":0.5}`)})
	mc.subscribed[1].handler(nil, mockMessage{p: []byte(`{"temp_c":18}`)})

	ev1 := <-ch
	te, ok := ev1.(eventbus.TelemetryEvent)
	require.True(t, ok)
	require.NotNil(t, te.Telemetry.SoCFraction)

	ev2 := <-ch
	we, ok := ev2.(eventbus.WeatherEvent)
	require.True(t, ok)
	assert.InDelta(t, 18, we.Weather.TempC, 1e-9)
}

func TestSubscriberClose(t *testing.T) {
	sub, mc := newTestSubscriber(t, nil)
	sub.Close()
	assert.True(t, mc.disconnected)
}

func TestNewSubscriberValidation(t *testing.T) {
	_, err := NewSubscriber(Config{}, nil)
	assert.Error(t, err)

	_, err = NewSubscriber(Config{Broker: "tcp://localhost:1883", QoS: 3}, nil)
	assert.Error(t, err)
}
