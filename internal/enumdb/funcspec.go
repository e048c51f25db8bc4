package enumdb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FuncSpec is one per-function knowledge-base document: the function name
// and its argument specs in document order.
type FuncSpec struct {
	Name string
	Args []ArgSpec
}

// ArgSpec associates an argument name with an enum identifier. Enum is empty
// when the document maps the argument to null (argument known, nothing to
// apply).
type ArgSpec struct {
	Name string
	Enum string
}

// Arg returns the first spec named name. Document order decides between
// duplicate names; Lint reports duplicates as a data-quality problem.
func (fs *FuncSpec) Arg(name string) (ArgSpec, bool) {
	for _, a := range fs.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// ParseFuncSpec decodes a per-function document:
//
//	{"name": "mmap", "enums": {"prot": "PROT_4", "fd": null}}
//
// The enums object is walked token by token so argument order is preserved
// and duplicate keys survive for lint to see; plain map decoding would lose
// both.
func ParseFuncSpec(data []byte) (*FuncSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	spec := &FuncSpec{}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "name":
			name, err := stringToken(dec)
			if err != nil {
				return nil, err
			}
			spec.Name = name
		case "enums":
			if err := expectDelim(dec, '{'); err != nil {
				return nil, err
			}
			for dec.More() {
				arg, err := stringToken(dec)
				if err != nil {
					return nil, err
				}
				tok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				switch v := tok.(type) {
				case nil:
					spec.Args = append(spec.Args, ArgSpec{Name: arg})
				case string:
					spec.Args = append(spec.Args, ArgSpec{Name: arg, Enum: v})
				default:
					return nil, fmt.Errorf("argument %q: enum must be a string or null", arg)
				}
			}
			if err := expectDelim(dec, '}'); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("document has no name field")
	}
	return spec, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", tok)
	}
	return s, nil
}
