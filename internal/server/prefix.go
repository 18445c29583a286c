package server

import "net/http"

// mountUnderPrefix mounts h under the given route prefix, adding a redirect from bare prefix → prefix/.
func mountUnderPrefix(h http.Handler, prefix string) http.Handler {
	if prefix == "" {
		return h // serve at root
	}
	mux := http.NewServeMux()

	// Strip the prefix so internal routes live at "/". The pattern ends with a
	// slash, so ServeMux redirects a bare "/board" to "/board/".
	mux.Handle(prefix+"/", http.StripPrefix(prefix, h))

	// Non-prefixed URLs 404 when hosted under a subpath.
	return mux
}
