package api

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer wraps handler in an *http.Server. Repair runs cover a whole
// season, so the write timeout is generous.
func NewServer(port uint16, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
