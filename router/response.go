package router

import (
	"bytes"
	"io"
	nethttp "net/http"
	"strconv"
)

const textPlain = "text/plain; charset=utf-8"

// newResponse synthesizes a complete response to req.
// HEAD requests get the same headers with an empty body.
func newResponse(req *nethttp.Request, status int, contentType string, body []byte) *nethttp.Response {
	header := make(nethttp.Header)
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))

	resp := &nethttp.Response{
		Status:        strconv.Itoa(status) + " " + nethttp.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		ContentLength: int64(len(body)),
		Request:       req,
		Body:          io.NopCloser(bytes.NewReader(body)),
	}
	if req.Method == nethttp.MethodHead {
		resp.Body = nethttp.NoBody
	}
	return resp
}

// textResponse synthesizes a plain-text status response such as "404 Not Found".
func textResponse(req *nethttp.Request, status int) *nethttp.Response {
	body := strconv.Itoa(status) + " " + nethttp.StatusText(status)
	return newResponse(req, status, textPlain, []byte(body))
}
