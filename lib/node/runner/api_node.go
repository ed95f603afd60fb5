package runner

import (
	"io/ioutil"
	"net/http"
	"strings"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/network/httputils"
)

type NetworkHandlerNode struct {
	nr *NodeRunner
}

func NewNetworkHandlerNode(nr *NodeRunner) *NetworkHandlerNode {
	return &NetworkHandlerNode{nr: nr}
}

// NodeStateResponse is the body of the node state and of the start and stop
// requests.
type NodeStateResponse struct {
	ID     uint64                    `json:"id" yaml:"id"`
	Alias  string                    `json:"alias" yaml:"alias"`
	Engine consensus.EngineState     `json:"engine" yaml:"engine"`
	Policy consensus.ThresholdPolicy `json:"policy" yaml:"-"`
	Ready  bool                      `json:"ready" yaml:"ready"`
	State  consensus.NodeState       `json:"state" yaml:"state"`
}

func (api NetworkHandlerNode) stateResponse() NodeStateResponse {
	return NodeStateResponse{
		ID:     api.nr.Node().ID(),
		Alias:  api.nr.Node().Alias(),
		Engine: api.nr.Consensus().EngineState(),
		Policy: api.nr.Consensus().Policy(),
		Ready:  api.nr.ConnectionManager().IsReady(),
		State:  api.nr.State(),
	}
}

func (api NetworkHandlerNode) NodeInfoHandler(w http.ResponseWriter, r *http.Request) {
	o, err := api.nr.Node().Serialize()
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(o)
}

func (api NetworkHandlerNode) NodeStateHandler(w http.ResponseWriter, r *http.Request) {
	httputils.WriteJSON(w, http.StatusOK, api.stateResponse())
}

func (api NetworkHandlerNode) PacketHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		httputils.WriteJSON(w, http.StatusUnsupportedMediaType, httputils.NewStatusProblem(http.StatusUnsupportedMediaType))
		return
	}

	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		httputils.WriteJSON(w, http.StatusBadRequest, errors.InvalidPacketFormat.Clone().SetData("error", err.Error()))
		return
	}

	if err := api.nr.Receive(common.NewNetworkMessage(common.PacketMessage, body)); err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	httputils.WriteJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (api NetworkHandlerNode) StartHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.nr.StartConsensus(); err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	httputils.WriteJSON(w, http.StatusOK, api.stateResponse())
}

func (api NetworkHandlerNode) StopHandler(w http.ResponseWriter, r *http.Request) {
	api.nr.StopConsensus()

	httputils.WriteJSON(w, http.StatusOK, api.stateResponse())
}
