package mqtt

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Handler consumes a message matched by a topic pattern. The captures slice
// holds the topic segments matched by the pattern's wildcards, in order.
type Handler func(ctx context.Context, captures []string, payload []byte)

type route struct {
	pattern string
	re      *regexp.Regexp
	handler Handler
}

// Router connects to an MQTT broker and dispatches inbound messages to
// handlers by topic pattern. Patterns use the broker wildcard syntax:
// `+` matches a single topic segment and `#` matches the remaining topic.
// Registration order decides between overlapping patterns; the first match
// wins and a message is dispatched at most once.
type Router struct {
	client paho.Client
	routes []*route
	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures the broker connection.
type Options struct {
	BrokerURL string
	Username  string
	Password  string
	ClientID  string

	ConnectRetries    int
	ConnectRetryDelay time.Duration
}

// NewRouter creates a router for the given broker. Connect must be called
// before messages flow.
func NewRouter(opts Options) *Router {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Router{
		ctx:    ctx,
		cancel: cancel,
	}

	co := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(r.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("mqtt: connection lost: %s", err)
		})
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}

	r.client = paho.NewClient(co)
	return r
}

// Subscribe registers a handler for a topic pattern. It must be called
// before Connect; the subscriptions are established on every (re)connect.
func (r *Router) Subscribe(pattern string, h Handler) error {
	re, err := CompilePattern(pattern)
	if err != nil {
		return err
	}

	r.routes = append(r.routes, &route{pattern: pattern, re: re, handler: h})
	return nil
}

// Connect dials the broker, retrying up to retries times with the given
// delay between attempts.
func (r *Router) Connect(retries int, delay time.Duration) error {
	if retries <= 0 {
		retries = 1
	}
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		token := r.client.Connect()
		token.Wait()
		if lastErr = token.Error(); lastErr == nil {
			return nil
		}

		log.Warnf("mqtt: connect attempt %d of %d failed: %s", attempt, retries, lastErr)
		if attempt < retries {
			time.Sleep(delay)
		}
	}

	return errors.Wrap(lastErr, "failed to connect to MQTT broker")
}

// Close stops dispatching and disconnects from the broker.
func (r *Router) Close() {
	r.cancel()
	r.client.Disconnect(250)
}

func (r *Router) onConnect(c paho.Client) {
	log.Info("mqtt: connected to broker")

	for _, rt := range r.routes {
		rt := rt
		token := c.Subscribe(rt.pattern, 0, func(_ paho.Client, msg paho.Message) {
			r.dispatch(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			log.Errorf("mqtt: failed to subscribe to %s: %s", rt.pattern, err)
			continue
		}
		log.Infof("mqtt: subscribed to %s", rt.pattern)
	}
}

func (r *Router) dispatch(topic string, payload []byte) {
	if len(payload) == 0 || !utf8.Valid(payload) {
		log.Warnf("mqtt: dropping empty or non-UTF-8 payload on topic %s", topic)
		return
	}

	for _, rt := range r.routes {
		m := rt.re.FindStringSubmatch(topic)
		if m == nil {
			continue
		}
		rt.handler(r.ctx, m[1:], payload)
		return
	}

	log.Debugf("mqtt: no route for topic %s", topic)
}

// CompilePattern translates an MQTT topic pattern into an anchored regular
// expression. Each `+` becomes a single-segment capture group and a
// trailing `#` captures the rest of the topic. `#` is only valid as the
// final segment.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("empty topic pattern")
	}

	segments := strings.Split(pattern, "/")

	var b strings.Builder
	b.WriteString("^")

	for i, seg := range segments {
		if i > 0 {
			b.WriteString("/")
		}

		switch seg {
		case "+":
			b.WriteString("([^/]+)")
		case "#":
			if i != len(segments)-1 {
				return nil, errors.Errorf("invalid topic pattern %q: # must be the last segment", pattern)
			}
			b.WriteString("(.*)")
		default:
			if strings.ContainsAny(seg, "+#") {
				return nil, errors.Errorf("invalid topic pattern %q: wildcard inside segment", pattern)
			}
			b.WriteString(regexp.QuoteMeta(seg))
		}
	}

	b.WriteString("$")

	return regexp.Compile(b.String())
}
