package http //nolint:revive // intentional naming for domain clarity

import nethttp "net/http"

// NewTransport returns a clone of http.DefaultTransport.
//
// When fileRoot is non-empty the transport also serves file:// URLs from that
// directory, so local package trees can be fetched and proxied like remote ones.
func NewTransport(fileRoot string) *nethttp.Transport {
	base, ok := nethttp.DefaultTransport.(*nethttp.Transport)
	if !ok {
		base = &nethttp.Transport{}
	}
	t := base.Clone()
	if fileRoot != "" {
		t.RegisterProtocol("file", nethttp.NewFileTransport(nethttp.Dir(fileRoot)))
	}
	return t
}
