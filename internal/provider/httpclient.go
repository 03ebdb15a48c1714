package provider

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout   = 12 * time.Second
	DefaultRetryMax  = 2
	DefaultUserAgent = "nutrilens/1.0 (+https://github.com/Suryadikhit/NutriLens)"
)

type HTTPOptions struct {
	Timeout  time.Duration
	RetryMax int
	Logger   *logrus.Logger
}

// NewHTTPClient builds the retrying client used by both lookup clients.
// The final response is passed through after retries so callers can map the
// status code themselves.
func NewHTTPClient(opts HTTPOptions) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	c.HTTPClient.Timeout = opts.Timeout
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = nil
	if opts.Logger != nil {
		c.Logger = leveledLogger{log: opts.Logger}
	}
	return c
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger so per-attempt
// chatter lands at debug level.
type leveledLogger struct {
	log *logrus.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Error(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
