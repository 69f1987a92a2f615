package middleware

import (
	"net/http"
	"strings"
	"unicode"
)

// CaseInsensitiveMiddleware lowercases the route words of the URL path so that
// /API/PARCEL/TRACK/HYD01-00001 reaches the same handler as the lowercase
// form. Segments containing a digit are identifiers and keep their case.
// Upper-case URLs encode more compactly in QR codes.
func CaseInsensitiveMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		segments := strings.Split(r.URL.Path, "/")
		for i, seg := range segments {
			if strings.IndexFunc(seg, unicode.IsDigit) < 0 {
				segments[i] = strings.ToLower(seg)
			}
		}
		r.URL.Path = strings.Join(segments, "/")
		r.URL.RawPath = ""

		next.ServeHTTP(w, r)
	})
}
