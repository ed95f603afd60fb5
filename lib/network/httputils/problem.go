package httputils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"boscoin.io/benor/lib/errors"
)

const (
	ProblemTypeDefault = "about:blank"
	ProblemTypeError   = "https://benor.boscoin.io/problem/error"
)

// Problem is the RFC 7807 problem details of a failed request.
type Problem struct {
	// "type" (string) - A URI reference [RFC3986] that identifies the
	// problem type. When this member is not present, its value is assumed
	// to be "about:blank".
	Type string `json:"type"`

	// "title" (string) - A short, human-readable summary of the problem
	// type.
	Title string `json:"title"`

	// "status" (number) - The HTTP status code generated by the origin
	// server for this occurrence of the problem.
	Status int `json:"status,omitempty"`

	// "detail" (string) - A human-readable explanation specific to this
	// occurrence of the problem.
	Detail string `json:"detail,omitempty"`

	// "instance" (string) - A URI reference that identifies the specific
	// occurrence of the problem.
	Instance string `json:"instance,omitempty"`

	// "data" carries the context attached to a `*errors.Error`.
	Data map[string]interface{} `json:"data,omitempty"`
}

func NewStatusProblem(status int) Problem {
	return Problem{Type: ProblemTypeDefault, Title: http.StatusText(status), Status: status}
}

func NewDetailedStatusProblem(status int, detail string) Problem {
	p := NewStatusProblem(status)
	p.Detail = detail
	return p
}

func NewErrorProblem(err error, status int) Problem {
	p := Problem{Type: ProblemTypeDefault, Title: err.Error(), Status: status}
	if e, ok := err.(*errors.Error); ok {
		p.Type = ProblemTypeError + "-" + uintToString(e.Code)
		p.Title = e.Message
		if len(e.Data) > 0 {
			p.Data = e.Data
		}
	}

	return p
}

func (p Problem) SetInstance(instance string) Problem {
	p.Instance = instance
	return p
}

func (p Problem) SetDetail(detail string) Problem {
	p.Detail = detail
	return p
}

// ToError restores the `*errors.Error` a problem was made from; other
// problems become a plain error of their title.
func (p Problem) ToError() error {
	if !strings.HasPrefix(p.Type, ProblemTypeError+"-") {
		return fmt.Errorf("%d: %s", p.Status, p.Title)
	}

	code, err := strconv.ParseUint(p.Type[len(ProblemTypeError)+1:], 10, 64)
	if err != nil {
		return fmt.Errorf("%d: %s", p.Status, p.Title)
	}

	e := errors.NewError(uint(code), p.Title)
	for k, v := range p.Data {
		e.SetData(k, v)
	}

	return e
}

func (p Problem) Serialize() ([]byte, error) {
	return json.Marshal(p)
}
