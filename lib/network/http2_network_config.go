package network

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"boscoin.io/benor/lib/common"
)

type HTTP2NetworkConfig struct {
	NodeName string
	Endpoint *common.Endpoint
	Addr     string

	ReadTimeout,
	ReadHeaderTimeout,
	WriteTimeout,
	IdleTimeout time.Duration

	TLSCertFile,
	TLSKeyFile string
}

func parseQueryDuration(endpoint *common.Endpoint, key string) (d time.Duration, err error) {
	if d, err = time.ParseDuration(common.GetUrlQuery(endpoint.Query(), key, "0s")); err != nil {
		err = errors.Wrapf(err, "invalid '%s'", key)
		return
	}
	if d < 0 {
		err = errors.Errorf("invalid '%s'; negative duration", key)
		return
	}

	return
}

func NewHTTP2NetworkConfigFromEndpoint(nodeName string, endpoint *common.Endpoint) (config *HTTP2NetworkConfig, err error) {
	query := endpoint.Query()

	var readTimeout, readHeaderTimeout, writeTimeout, idleTimeout time.Duration
	if readTimeout, err = parseQueryDuration(endpoint, "ReadTimeout"); err != nil {
		return
	}
	if readHeaderTimeout, err = parseQueryDuration(endpoint, "ReadHeaderTimeout"); err != nil {
		return
	}
	if writeTimeout, err = parseQueryDuration(endpoint, "WriteTimeout"); err != nil {
		return
	}
	if idleTimeout, err = parseQueryDuration(endpoint, "IdleTimeout"); err != nil {
		return
	}

	if name := query.Get("NodeName"); len(name) > 0 {
		nodeName = name
	}

	tlsCertFile := query.Get("TLSCertFile")
	tlsKeyFile := query.Get("TLSKeyFile")

	if strings.ToLower(endpoint.Scheme) == "https" && (len(tlsCertFile) < 1 || len(tlsKeyFile) < 1) {
		err = errors.New("HTTPS needs `TLSCertFile` and `TLSKeyFile`")
		return
	}

	config = &HTTP2NetworkConfig{
		NodeName:          nodeName,
		Endpoint:          endpoint,
		Addr:              endpoint.Host,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		TLSCertFile:       tlsCertFile,
		TLSKeyFile:        tlsKeyFile,
	}

	return
}

func (config HTTP2NetworkConfig) IsHTTPS() bool {
	return len(config.TLSCertFile) > 0 && len(config.TLSKeyFile) > 0
}

func (config HTTP2NetworkConfig) String() string {
	return string(common.MustMarshalJSON(config))
}
