package common

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

var DefaultPort int = 12001

type Endpoint url.URL

func NewEndpointFromURL(u *url.URL) *Endpoint {
	return (*Endpoint)(u)
}

func (e *Endpoint) String() string {
	return (&url.URL{
		Scheme: e.Scheme,
		Host:   e.Host,
		Path:   e.Path,
	}).String()
}

func (e *Endpoint) Port() string {
	return (*url.URL)(e).Port()
}

func (e *Endpoint) Query() url.Values {
	return (*url.URL)(e).Query()
}

func (e *Endpoint) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(e.String())), nil
}

func (e *Endpoint) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}

	p, err := ParseEndpoint(s)
	if err != nil {
		return err
	}

	*e = *p

	return nil
}

func ParseEndpoint(endpoint string) (u *Endpoint, err error) {
	var parsed *url.URL
	parsed, err = url.Parse(endpoint)
	if err != nil {
		return
	}
	switch parsed.Scheme {
	case "":
		err = errors.New("missing scheme")
		return
	case "memory":
		u = NewEndpointFromURL(parsed)
		return
	case "http", "https":
	default:
		err = fmt.Errorf("unknown scheme: %q", parsed.Scheme)
		return
	}

	if len(parsed.Hostname()) < 1 {
		err = errors.New("missing host")
		return
	}

	if len(parsed.Port()) < 1 {
		parsed.Host = fmt.Sprintf("%s:%d", parsed.Host, DefaultPort)
	}

	var portInt int64
	if portInt, err = strconv.ParseInt(parsed.Port(), 10, 64); err != nil {
		return
	} else if portInt < 1 {
		err = errors.New("invalid port")
		return
	}

	u = NewEndpointFromURL(parsed)

	return
}
