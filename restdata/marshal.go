// Copyright 2015 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"io"
	"mime"
	"reflect"

	"github.com/ugorji/go/codec"
)

// JSONMediaType is the media type of every API response.
const JSONMediaType = "application/json"

// jsonHandle builds the codec handle used for all API traffic.
// Nested objects decode as string-keyed maps.
func jsonHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// Decode decodes a JSON document from a reader, such as an HTTP
// response body.  out must be a pointer type.
func Decode(contentType string, r io.Reader, out interface{}) error {
	// The API is not consistent about its Content-Type: header,
	// and sometimes labels JSON as text.  Anything JSON-ish or
	// unlabeled is accepted.
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return err
		}
		switch mediaType {
		case "text/json", "application/json", "text/html", "text/plain", "text/javascript":
		default:
			return ErrUnsupportedMediaType{Type: mediaType}
		}
	}

	decoder := codec.NewDecoder(r, jsonHandle())
	return decoder.Decode(out)
}

// Encode writes a JSON encoding of in to w.
func Encode(w io.Writer, in interface{}) error {
	encoder := codec.NewEncoder(w, jsonHandle())
	return encoder.Encode(in)
}
