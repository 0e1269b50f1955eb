package httpclient

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// HclogAdapter adapts an hclog.Logger to the resty log.Logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that forwards messages to an hclog.Logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

// Errorf logs a message at error level.
func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf logs a message at warning level.
func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Debugf logs a message at debug level.
func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// defaults applied when the http_client config section is absent or partial.
const (
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 5 * time.Second
	defaultTimeout          = 30 * time.Second
)

// New initializes a resty client from the http_client configuration section.
func New(logger hclog.Logger, cfg *config.Config) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}

	httpCfg := config.HTTPClient{}
	if cfg != nil {
		httpCfg = cfg.HTTPClient
	}

	client.
		SetDebug(httpCfg.Debug).
		SetRetryCount(orInt(httpCfg.RetryCount, defaultRetryCount)).
		SetRetryWaitTime(orDuration(httpCfg.RetryWaitTime, defaultRetryWaitTime)).
		SetRetryMaxWaitTime(orDuration(httpCfg.RetryMaxWaitTime, defaultRetryMaxWaitTime)).
		SetTimeout(orDuration(httpCfg.Timeout, defaultTimeout)).
		SetTLSClientConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !httpCfg.TLSClientConfig.Verify,
		})

	if httpCfg.Proxy.Host != "" && httpCfg.Proxy.Port != 0 {
		client.SetProxy(fmt.Sprintf("%s:%d", httpCfg.Proxy.Host, httpCfg.Proxy.Port))
	}

	return client
}

func orInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}
