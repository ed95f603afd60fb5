//
// Defines the `Validator` type of Node, which is a remote node
//
// A `Validator` is a peer taking part in the same agreement, as seen by the
// `LocalNode`.
//
package node

import (
	"encoding/json"
	"strconv"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/errors"
)

type ValidatorFromJSON struct {
	ID       uint64           `json:"id"`
	Alias    string           `json:"alias"`
	Endpoint *common.Endpoint `json:"endpoint"`
}

type Validator struct {
	id       uint64
	alias    string
	endpoint *common.Endpoint
}

func NewValidator(id uint64, endpoint *common.Endpoint, alias string) *Validator {
	if len(alias) < 1 {
		alias = MakeAlias(id)
	}

	return &Validator{id: id, alias: alias, endpoint: endpoint}
}

// NewValidatorFromURI parses `<endpoint>?id=<id>[&alias=<alias>]`.
func NewValidatorFromURI(v string) (*Validator, error) {
	endpoint, err := common.ParseEndpoint(v)
	if err != nil {
		return nil, errors.InvalidValidatorEndpoint.Clone().SetData("error", err.Error())
	}

	query := endpoint.Query()
	id, err := strconv.ParseUint(query.Get("id"), 10, 64)
	if err != nil {
		return nil, errors.InvalidValidatorEndpoint.Clone().SetData("id", query.Get("id"))
	}

	endpoint.RawQuery = ""

	return NewValidator(id, endpoint, query.Get("alias")), nil
}

func (v *Validator) String() string {
	return v.Alias()
}

func (v *Validator) Equal(a Node) bool {
	return v.ID() == a.ID()
}

func (v *Validator) ID() uint64 {
	return v.id
}

func (v *Validator) Alias() string {
	return v.alias
}

func (v *Validator) Endpoint() *common.Endpoint {
	return v.endpoint
}

func (v *Validator) MarshalJSON() ([]byte, error) {
	var endpoint interface{}
	if v.Endpoint() != nil {
		endpoint = v.Endpoint().String()
	}

	return json.Marshal(map[string]interface{}{
		"id":       v.ID(),
		"alias":    v.Alias(),
		"endpoint": endpoint,
	})
}

func (v *Validator) UnmarshalJSON(b []byte) error {
	var va ValidatorFromJSON
	if err := json.Unmarshal(b, &va); err != nil {
		return err
	}

	v.id = va.ID
	v.alias = va.Alias
	v.endpoint = va.Endpoint

	return nil
}

func (v *Validator) Serialize() ([]byte, error) {
	return json.Marshal(v)
}
