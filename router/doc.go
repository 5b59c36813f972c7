// Package router intercepts outbound HTTP requests that address files inside
// SPK packages and answers them from the parsed package.
//
// A request whose URL path contains the package extension followed by a slash
// (by default ".spk/") is split into the package location and the path of a
// file inside it:
//
//	https://cdn.example/games/demo.spk/scripts/main.js
//	source: https://cdn.example/games/demo.spk
//	inner:  scripts/main.js
//
// Such requests never reach the network beyond the single fetch of the
// package itself. Every other request is passed to the next RoundTripper
// untouched.
//
// Router implements http.RoundTripper, so it can back an http.Client or an
// httputil.ReverseProxy:
//
//	c := cache.New(spkhttp.NewFetcher())
//	client := &http.Client{Transport: router.New(c)}
package router
