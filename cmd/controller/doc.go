// Controller serves the key-value controller API of package controller, so
// that verifyapis has something to talk to on a development machine.
//
// The configuration file (see -config) is relaxed JSON, e.g.
//
//	{
//		address: "localhost:8080"
//		debug: true
//		backend: {
//			type: "bolt"
//			path: "$HOME/lib/kvverify/controller.db"
//		}
//	}
//
// Backend types are "memory" (the default), "disk" (dir), "bolt" (path), "s3"
// (profile, region, bucket) and "dynamodb" (profile, region, table).
package main // import "github.com/nicolagi/kvverify/cmd/controller"
