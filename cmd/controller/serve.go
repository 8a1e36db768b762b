package main

import (
	"context"
	"net"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
)

// serve runs srv on l until a signal arrives on sigc. It returns only after
// srv.Shutdown has let in-flight requests finish, so the caller may then
// close the backend.
func serve(srv *http.Server, l net.Listener, sigc <-chan os.Signal) error {
	done := make(chan struct{})
	go func() {
		sig := <-sigc
		log.WithField("signal", sig).Info("Shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.WithField("err", err).Warn("Could not shut down the server cleanly")
		}
		close(done)
	}()
	// Serve returns ErrServerClosed as soon as Shutdown starts.
	if err := srv.Serve(l); err != http.ErrServerClosed {
		return err
	}
	<-done
	return nil
}
