package common

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v2"
)

type Encode func(v interface{}, w io.Writer) error

var DefaultEncodes = map[string]Encode{
	"json": func(v interface{}, w io.Writer) error {
		return jsonEncode(v, w, false)
	},
	"prettyjson": func(v interface{}, w io.Writer) error {
		return jsonEncode(v, w, true)
	},
	"yaml": func(v interface{}, w io.Writer) error {
		e := yaml.NewEncoder(w)
		defer e.Close()

		return e.Encode(v)
	},
}

func EncodeFormats() []string {
	var formats []string
	for k := range DefaultEncodes {
		formats = append(formats, k)
	}
	sort.Strings(formats)

	return formats
}

func GetEncode(format string) (Encode, error) {
	e, found := DefaultEncodes[format]
	if !found {
		return nil, fmt.Errorf("unknown format, %q; %v", format, EncodeFormats())
	}

	return e, nil
}

func jsonEncode(v interface{}, w io.Writer, pretty bool) error {
	e := json.NewEncoder(w)
	if pretty {
		e.SetIndent("", "  ")
	}

	return e.Encode(&v)
}
