package app

import (
	"log"
	"mime"
)

// The storefront serves its stylesheet from the embedded filesystem,
// which resolves Content-Type from the system MIME table. Minimal
// containers ship without one, so register what the pages link to.
func init() {
	ensureMimeType(".css", "text/css; charset=utf-8")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: register MIME type for %s: %v", ext, err)
	}
}
