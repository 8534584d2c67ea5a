package protocol

type header struct {
	name  string
	value string
}

// One RTSP-like request or response.
// Headers must not be read before HeaderComplete, the body is final only once DatagramComplete.
type Datagram struct {
	maxLength int

	// Parsed start line
	isResponse bool
	method     string
	uri        string
	status     StatusCode
	reason     string

	headers []header
	body    []byte

	raw              []byte // accumulated receive bytes
	end              int    // offset just past the datagram once complete
	headerComplete   bool
	datagramComplete bool

	wire []byte // last generated datagram
}
