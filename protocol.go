package gremlin

// Wire formats the client can speak.
const (
	contentTypeGraphBinaryV1 = "application/vnd.graphbinary-v1.0"
	contentTypeGraphSONV2    = "application/vnd.gremlin-v2.0+json"
	contentTypeGraphSONV3    = "application/vnd.gremlin-v3.0+json"
)

// Format selects the serialization format for a connection.
type Format string

const (
	// FormatGraphBinary is the binary format. It is the default.
	FormatGraphBinary Format = "graphbinary"
	// FormatGraphSONV2 is the older tagged-JSON format.
	FormatGraphSONV2 Format = "graphson-v2"
	// FormatGraphSONV3 is the tagged-JSON format with typed collections.
	FormatGraphSONV3 Format = "graphson-v3"
)

// protocol is one serialization format: it turns a request into a framed
// message and a framed message back into a response envelope.
type protocol interface {
	encodeRequest(req *Request) ([]byte, error)
	decodeResponse(data []byte) (*Response, error)
	contentType() string
}

type graphBinaryProtocol struct{}

func (graphBinaryProtocol) encodeRequest(req *Request) ([]byte, error) {
	return encodeBinaryRequest(req)
}

func (graphBinaryProtocol) decodeResponse(data []byte) (*Response, error) {
	return decodeBinaryResponse(data)
}

func (graphBinaryProtocol) contentType() string { return contentTypeGraphBinaryV1 }

type graphsonProtocol struct {
	codec graphsonCodec
}

func (p graphsonProtocol) encodeRequest(req *Request) ([]byte, error) {
	return p.codec.encodeRequest(req)
}

func (p graphsonProtocol) decodeResponse(data []byte) (*Response, error) {
	return p.codec.decodeResponse(data)
}

func (p graphsonProtocol) contentType() string { return p.codec.contentType() }

// newProtocol maps a Format to its codec. Unknown formats are a Generic
// error: the format comes from configuration, not from the wire.
func newProtocol(f Format) (protocol, error) {
	switch f {
	case FormatGraphBinary, "":
		return graphBinaryProtocol{}, nil
	case FormatGraphSONV2:
		return graphsonProtocol{codec: graphsonCodec{version: 2}}, nil
	case FormatGraphSONV3:
		return graphsonProtocol{codec: graphsonCodec{version: 3}}, nil
	default:
		return nil, genericErrorf("unknown serialization format %q", f)
	}
}
