package network

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/network/httputils"
)

type HTTP2NetworkClient struct {
	endpoint       *common.Endpoint
	client         *common.HTTP2Client
	defaultHeaders http.Header
}

func NewHTTP2NetworkClient(endpoint *common.Endpoint, client *common.HTTP2Client) *HTTP2NetworkClient {
	if client == nil {
		client, _ = common.NewHTTP2Client(
			defaultTimeout,
			defaultIdleTimeout,
			false,
			nil,
		)
	}

	return &HTTP2NetworkClient{endpoint: endpoint, client: client, defaultHeaders: http.Header{}}
}

func (c *HTTP2NetworkClient) Endpoint() *common.Endpoint {
	return c.endpoint
}

func (c *HTTP2NetworkClient) SetDefaultHeaders(headers http.Header) {
	for key, values := range headers {
		for _, v := range values {
			c.defaultHeaders.Set(key, v)
		}
	}
}

func (c *HTTP2NetworkClient) DefaultHeaders() http.Header {
	headers := http.Header{}
	for key, values := range c.defaultHeaders {
		for _, v := range values {
			headers.Set(key, v)
		}
	}

	return headers
}

func (c *HTTP2NetworkClient) resolvePath(path string) (u *url.URL) {
	u = (*url.URL)(c.endpoint).ResolveReference(&url.URL{Path: path})
	return u
}

// readResponse returns the body of a 200 response; any other status is turned
// into the error of its problem body.
func readResponse(response *http.Response) (body []byte, err error) {
	defer response.Body.Close()

	if body, err = ioutil.ReadAll(response.Body); err != nil {
		err = errors.Wrap(err, "failed to read response")
		return
	}

	if response.StatusCode == http.StatusOK {
		return
	}

	var problem httputils.Problem
	if jerr := json.Unmarshal(body, &problem); jerr != nil || len(problem.Type) < 1 {
		err = errors.Errorf("unexpected response; status=%d", response.StatusCode)
	} else {
		err = problem.ToError()
	}
	body = nil

	return
}

func (c *HTTP2NetworkClient) get(path string) (body []byte, err error) {
	headers := c.DefaultHeaders()
	headers.Set("Accept", "application/json")

	var response *http.Response
	if response, err = c.client.Get(c.resolvePath(path).String(), headers); err != nil {
		return
	}

	return readResponse(response)
}

func (c *HTTP2NetworkClient) post(path string, b []byte) (body []byte, err error) {
	headers := c.DefaultHeaders()
	headers.Set("Content-Type", "application/json")

	var response *http.Response
	if response, err = c.client.Post(c.resolvePath(path).String(), b, headers); err != nil {
		return
	}

	return readResponse(response)
}

func (c *HTTP2NetworkClient) GetNodeInfo() ([]byte, error) {
	return c.get(UrlPathPrefixNode + NodeInfoPattern)
}

func (c *HTTP2NetworkClient) GetNodeState() ([]byte, error) {
	return c.get(UrlPathPrefixNode + NodeStatePattern)
}

// SendPacket posts the serialized packet; the error is the rejection of the
// receiving node when it answered.
func (c *HTTP2NetworkClient) SendPacket(b []byte) (err error) {
	_, err = c.post(UrlPathPrefixNode+NodePacketPattern, b)
	return
}

func (c *HTTP2NetworkClient) StartConsensus() (err error) {
	_, err = c.post(UrlPathPrefixNode+NodeStartPattern, nil)
	return
}

func (c *HTTP2NetworkClient) StopConsensus() (err error) {
	_, err = c.post(UrlPathPrefixNode+NodeStopPattern, nil)
	return
}

///
/// Perform a raw Get request on this peer
///
/// Params:
///   path = URL chunk to request (e.g. `/node/state`)
///
/// Returns:
///   []byte = Body part returned by the query if it was successful
///   error  = Error information if the query wasn't successful
///
func (c *HTTP2NetworkClient) Get(path string) ([]byte, error) {
	return c.get(path)
}
