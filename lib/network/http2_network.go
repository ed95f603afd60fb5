package network

import (
	"fmt"
	"io"
	goLog "log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	logging "github.com/inconshreveable/log15"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/network/httputils"
	"boscoin.io/benor/lib/node"
)

var (
	defaultTimeout     = 3 * time.Second
	defaultIdleTimeout = 3 * time.Second
)

type HTTP2Network struct {
	sync.RWMutex

	server  *http.Server
	router  *mux.Router
	routers map[string]*mux.Router

	messageBroker MessageBroker
	ready         bool

	config    *HTTP2NetworkConfig
	client    HTTP2NetworkClientConfig
	localNode node.Node
	log       logging.Logger
}

// HTTP2NetworkClientConfig is used for the clients the network hands out by
// `GetClient`.
type HTTP2NetworkClientConfig struct {
	Timeout     time.Duration
	IdleTimeout time.Duration
	Retry       *common.RetrySetting
}

func NewHTTP2Network(config *HTTP2NetworkConfig, httpLogOutput io.Writer) (h2n *HTTP2Network) {
	httpLog := log.New(logging.Ctx{"module": "http", "node": config.NodeName})
	errorLog := goLog.New(HTTP2ErrorLog15Writer{httpLog}, "", 0)

	server := &http.Server{
		Addr:              config.Addr,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		ErrorLog:          errorLog,
	}
	server.SetKeepAlivesEnabled(true)

	h2s := &http2.Server{
		IdleTimeout: config.IdleTimeout,
	}

	baseRouter := mux.NewRouter()

	h2n = &HTTP2Network{
		server: server,
		router: baseRouter,
		config: config,
		client: HTTP2NetworkClientConfig{
			Timeout:     defaultTimeout,
			IdleTimeout: defaultIdleTimeout,
		},
		log: httpLog,
	}
	h2n.routers = map[string]*mux.Router{
		RouterNameNode:   baseRouter.PathPrefix(UrlPathPrefixNode).Subrouter(),
		RouterNameMetric: baseRouter.PathPrefix(UrlPathPrefixMetric).Subrouter(),
	}
	baseRouter.Use(h2n.notReadyMiddleware)

	var handler http.Handler = HTTP2Log15Handler{log: httpLog, handler: baseRouter}
	if httpLogOutput != nil {
		handler = handlers.CombinedLoggingHandler(httpLogOutput, handler)
	}

	if config.IsHTTPS() {
		http2.ConfigureServer(server, h2s)
	} else {
		handler = h2c.NewHandler(handler, h2s)
	}
	server.Handler = handler

	return
}

func (t *HTTP2Network) notReadyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.IsReady() {
			httputils.WriteJSON(w, http.StatusServiceUnavailable, httputils.NewStatusProblem(http.StatusServiceUnavailable))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *HTTP2Network) SetClientConfig(config HTTP2NetworkClientConfig) {
	t.Lock()
	defer t.Unlock()

	t.client = config
}

// GetClient creates new keep-alive HTTP2 client
func (t *HTTP2Network) GetClient(endpoint *common.Endpoint) NetworkClient {
	t.RLock()
	config := t.client
	t.RUnlock()

	rawClient, err := common.NewHTTP2Client(config.Timeout, config.IdleTimeout, true, config.Retry)
	if err != nil {
		t.log.Error("failed to make http2 client", "endpoint", endpoint, "error", err)
		return nil
	}

	client := NewHTTP2NetworkClient(endpoint, rawClient)

	headers := http.Header{}
	headers.Set("User-Agent", fmt.Sprintf("v-%s", t.config.NodeName))
	client.SetDefaultHeaders(headers)

	return client
}

func (t *HTTP2Network) Endpoint() *common.Endpoint {
	return t.config.Endpoint
}

// Handler is the root handler of the network; it serves the same routes as
// the running server.
func (t *HTTP2Network) Handler() http.Handler {
	return t.server.Handler
}

func (t *HTTP2Network) AddMiddleware(routerName string, mws ...mux.MiddlewareFunc) error {
	var r *mux.Router
	if len(routerName) < 1 {
		r = t.router
	} else {
		var ok bool
		if r, ok = t.routers[routerName]; !ok {
			return errors.NotMatchHTTPRouter.Clone().SetData("router", routerName)
		}
	}
	for _, mw := range mws {
		r.Use(mw)
	}
	return nil
}

func (t *HTTP2Network) AddHandler(pattern string, handler http.HandlerFunc) (router *mux.Route) {
	var routerName string
	var prefix string
	switch {
	case strings.HasPrefix(pattern, UrlPathPrefixNode):
		routerName = RouterNameNode
		prefix = pattern[len(UrlPathPrefixNode):]
	case strings.HasPrefix(pattern, UrlPathPrefixMetric):
		routerName = RouterNameMetric
		prefix = pattern[len(UrlPathPrefixMetric):]
	default:
		return t.router.HandleFunc(pattern, handler)
	}

	r := t.routers[routerName]

	// if a pattern has a suffix *,the router sets path prefix and handler
	if strings.HasSuffix(prefix, "*") {
		pathPrefix := strings.TrimSuffix(prefix, "*")
		return r.PathPrefix(pathPrefix).Handler(handler)
	}
	return r.HandleFunc(prefix, handler)
}

func (t *HTTP2Network) SetLocalNode(localNode node.Node) {
	t.Lock()
	defer t.Unlock()

	t.localNode = localNode
}

func (t *HTTP2Network) SetMessageBroker(mb MessageBroker) {
	t.Lock()
	defer t.Unlock()

	t.messageBroker = mb
}

func (t *HTTP2Network) MessageBroker() MessageBroker {
	t.RLock()
	defer t.RUnlock()

	return t.messageBroker
}

// Ready opens the routes; until then every request gets 503.
func (t *HTTP2Network) Ready() error {
	t.Lock()
	defer t.Unlock()

	t.ready = true

	return nil
}

func (t *HTTP2Network) IsReady() bool {
	t.RLock()
	defer t.RUnlock()

	return t.ready
}

// Start will start `HTTP2Network`; it blocks until `Stop`.
func (t *HTTP2Network) Start() (err error) {
	t.log.Debug("starting network", "config", t.config)

	if t.config.IsHTTPS() {
		err = t.server.ListenAndServeTLS(t.config.TLSCertFile, t.config.TLSKeyFile)
	} else {
		err = t.server.ListenAndServe()
	}

	if err == http.ErrServerClosed {
		err = nil
	}

	return
}

func (t *HTTP2Network) Stop() {
	t.Lock()
	t.ready = false
	t.Unlock()

	t.server.Close()
}
