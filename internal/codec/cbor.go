package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Default is the shared CBOR codec. Building enc/dec modes is not
// free, so callers reuse this instance.
var Default = NewCBOR()

// CBOR implements Marshaler and Unmarshaler using fxamacker/cbor with
// the encoding options the Central wire protocol expects: RFC3339
// timestamps and core deterministic encoding so frames are stable
// across clients.
type CBOR struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func NewCBOR() *CBOR {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	encMode, err := encOpts.EncMode()
	if err != nil {
		panic(err)
	}

	decOpts := cbor.DecOptions{
		// Document fields decode as map[string]any, not
		// map[interface{}]interface{}.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	decMode, err := decOpts.DecMode()
	if err != nil {
		panic(err)
	}

	return &CBOR{encMode: encMode, decMode: decMode}
}

func (c *CBOR) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c *CBOR) NewEncoder(w io.Writer) Encoder {
	return c.encMode.NewEncoder(w)
}

func (c *CBOR) Unmarshal(data []byte, dst any) error {
	return c.decMode.Unmarshal(data, dst)
}

func (c *CBOR) NewDecoder(r io.Reader) Decoder {
	return c.decMode.NewDecoder(r)
}

var _ interface {
	Marshaler
	Unmarshaler
} = (*CBOR)(nil)
