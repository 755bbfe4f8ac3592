package middleware

import (
	"net/http"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
