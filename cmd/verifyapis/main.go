package main

import (
	"context"

	"github.com/google/gops/agent"
	"github.com/nicolagi/kvverify/verify"
	log "github.com/sirupsen/logrus"
)

const controllerURL = "http://localhost:8080"

func main() {
	if err := agent.Listen(agent.Options{}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	report := verify.New(verify.WithBaseURL(controllerURL)).Run(context.Background())
	log.WithFields(log.Fields{
		"put": report.Put.Kind(),
		"get": report.Get.Kind(),
	}).Debug("Verification done")
}
