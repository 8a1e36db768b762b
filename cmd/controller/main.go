package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/google/gops/agent"
	"github.com/nicolagi/kvverify/controller"
	log "github.com/sirupsen/logrus"
)

func main() {
	defaultConfigFile := os.ExpandEnv("$HOME/lib/kvverify/controller.config")
	configFile := flag.String("config", defaultConfigFile, "location of configuration file")
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Could not load configuration")
	}
	config.applyDefaultsForMissingProperties()

	if config.Debug {
		log.SetLevel(log.DebugLevel)
	}

	// No ShutdownCleanup: gops would exit on SIGINT before serve can drain.
	if err := agent.Listen(agent.Options{}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	store, cleanup, err := newStore(config)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"type": config.Backend.Type,
		}).Fatal("Could not create backend")
	}
	defer cleanup()
	log.WithField("type", config.Backend.Type).Info("Backend ready")

	srv := &http.Server{
		Addr:    config.Address,
		Handler: controller.New(controller.WithStore(store)),
	}

	l, err := net.Listen("tcp", config.Address)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"addr": config.Address,
		}).Error("Could not listen")
		return
	}
	log.WithField("addr", l.Addr()).Info("Listening")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	if err := serve(srv, l, c); err != nil {
		log.WithField("err", err).Error("Could not serve")
	}
}
