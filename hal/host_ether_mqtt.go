//go:build !tinygo

package hal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// MQTTEther carries air frames between processes through an MQTT broker.
//
// Topic layout: <prefix>radio/<channel>/<origin>; payload: prefix byte followed by air data.
type MQTTEther struct {
	client paho.Client
	prefix string
	base   string

	mu    sync.Mutex
	seq   int
	ports map[*mqttPort]struct{}
}

type mqttPort struct {
	ether  *MQTTEther
	origin string
	ch     chan AirFrame
	done   chan struct{}
	once   sync.Once
}

// NewMQTTEther connects to brokerURL, e.g. mqtt://localhost:1883/lab1.
// The URL path becomes the topic prefix; ?client-id= overrides the client id.
func NewMQTTEther(brokerURL string) (*MQTTEther, error) {
	opts, prefix, err := mqttOptionsFromURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("mqtt ether: %w", err)
	}

	e := &MQTTEther{
		prefix: prefix,
		base:   originBase(),
		ports:  make(map[*mqttPort]struct{}),
	}
	if opts.ClientID == "" {
		opts.SetClientID("ubit-" + e.base)
	}
	opts.SetOnConnectHandler(e.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("mqtt ether: connection lost: %v", err)
	})
	e.client = paho.NewClient(opts)

	token := e.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt ether connect %s: %w", brokerURL, err)
	}
	return e, nil
}

func mqttOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	prefix := strings.Trim(u.Path, "/")
	if prefix != "" {
		prefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, prefix, nil
}

// originBase names this process on the medium: a machine-derived id plus the pid.
func originBase() string {
	id, err := machineid.ProtectedID("ubit")
	if err != nil || len(id) < 8 {
		id = "host0000"
	}
	return fmt.Sprintf("%s-%d", id[:8], os.Getpid())
}

func (e *MQTTEther) onConnect(c paho.Client) {
	topic := e.prefix + "radio/+/+"
	token := c.Subscribe(topic, 0, e.onMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			glog.Errorf("mqtt ether: subscribe %q: %v", topic, err)
			return
		}
		glog.Infof("mqtt ether: subscribed %q", topic)
	}()
}

func (e *MQTTEther) onMessage(_ paho.Client, m paho.Message) {
	channel, origin, ok := parseRadioTopic(e.prefix, m.Topic())
	payload := m.Payload()
	if !ok || len(payload) < 1 {
		return
	}
	f := AirFrame{Channel: channel, Prefix: payload[0]}

	e.mu.Lock()
	defer e.mu.Unlock()
	for p := range e.ports {
		if p.origin == origin {
			continue
		}
		cp := f
		cp.Data = append([]byte(nil), payload[1:]...)
		select {
		case p.ch <- cp:
		default:
			glog.Warningf("mqtt ether: receiver queue full, frame lost")
		}
	}
}

// parseRadioTopic splits <prefix>radio/<channel>/<origin>.
func parseRadioTopic(prefix, topic string) (channel uint8, origin string, ok bool) {
	if !strings.HasPrefix(topic, prefix) {
		return 0, "", false
	}
	items := strings.Split(topic[len(prefix):], "/")
	if len(items) != 3 || items[0] != "radio" || items[2] == "" {
		return 0, "", false
	}
	ch, err := strconv.ParseUint(items[1], 10, 8)
	if err != nil {
		return 0, "", false
	}
	return uint8(ch), items[2], true
}

// Attach registers a receiver with its own origin name.
func (e *MQTTEther) Attach(rx func(AirFrame)) EtherPort {
	e.mu.Lock()
	e.seq++
	p := &mqttPort{
		ether:  e,
		origin: fmt.Sprintf("%s.%d", e.base, e.seq),
		ch:     make(chan AirFrame, etherQueueDepth),
		done:   make(chan struct{}),
	}
	e.ports[p] = struct{}{}
	e.mu.Unlock()

	go func() {
		for {
			select {
			case f := <-p.ch:
				rx(f)
			case <-p.done:
				return
			}
		}
	}()
	return p
}

func (p *mqttPort) Transmit(f AirFrame) {
	topic := fmt.Sprintf("%sradio/%d/%s", p.ether.prefix, f.Channel, p.origin)
	payload := make([]byte, 0, len(f.Data)+1)
	payload = append(payload, f.Prefix)
	payload = append(payload, f.Data...)
	p.ether.client.Publish(topic, 0, false, payload)
	if glog.V(2) {
		glog.Infof("PUB %q %d bytes", topic, len(payload))
	}
}

func (p *mqttPort) Close() error {
	p.once.Do(func() {
		p.ether.mu.Lock()
		delete(p.ether.ports, p)
		p.ether.mu.Unlock()
		close(p.done)
	})
	return nil
}

// Close disconnects from the broker.
func (e *MQTTEther) Close() error {
	e.client.Disconnect(250)
	return nil
}
