// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct an API client
// based on command-line flags, pointed either at the real remote API
// or at an in-process fake.
package backend

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restserver"
)

// Known implementations.
const (
	// Remote talks to the remote API.  The address, if any, is a
	// region name or a base URL.
	Remote = "surveygizmo"

	// Memory serves a fake API from an in-memory store on a
	// loopback port.  The address, if any, names a YAML seed file.
	Memory = "memory"
)

// Backend describes user-visible parameters of where API requests
// go.  This implements the flag.Value interface, and so a typical use
// is
//
//     func main() {
//         backend := backend.Backend{Implementation: backend.Remote}
//         flag.Var(&backend, "backend", "impl:address of the API")
//         flag.Parse()
//         client, stop, err := backend.Client(gizmo.DefaultConfig())
//         defer stop()
//     }
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "memory".
	Implementation string

	// Address holds some backend-specific address, such as a
	// region or a seed file.
	Address string
}

// Client creates an API client for config, adjusted for the backend.
// The returned function releases anything the backend started and
// must be called when the client is no longer needed.  In
// particular, if b.Implementation is "memory", each call starts an
// independent fake server with its own store.
func (b *Backend) Client(config gizmo.Config) (*api.Client, func(), error) {
	nothing := func() {}
	switch b.Implementation {
	case Remote:
		if _, isRegion := gizmo.RegionURLs[b.Address]; isRegion {
			config.Region = b.Address
		} else if b.Address != "" {
			config.APIURL = b.Address
		}
		client, err := api.New(config)
		return client, nothing, err

	case Memory:
		store := memory.NewWithClock(config.GetClock())
		if b.Address != "" {
			if err := store.LoadYaml(b.Address); err != nil {
				return nil, nothing, err
			}
		}
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, nothing, err
		}
		fake := restserver.NewRouter(store, restserver.Config{
			APIVersion: config.APIVersion,
			Logger:     config.GetLogger(),
		})
		server := &http.Server{Handler: fake}
		go func() { _ = server.Serve(listener) }()
		stop := func() { _ = server.Close() }

		config.APIURL = "http://" + listener.Addr().String()
		if config.APIToken == "" {
			config.APIToken = Memory
		}
		if config.APITokenSecret == "" {
			config.APITokenSecret = Memory
		}
		client, err := api.New(config)
		if err != nil {
			stop()
			return nil, nothing, err
		}
		return client, stop, nil

	default:
		return nil, nothing, errors.New("unknown API backend " + b.Implementation)
	}
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Neither Set nor String
// validates the address.
func (b *Backend) Set(param string) error {
	if param == "" {
		return errors.New("must specify a backend type")
	}
	parts := strings.SplitN(param, ":", 2)
	switch parts[0] {
	case Remote, Memory:
	default:
		return errors.New("unknown API backend " + parts[0])
	}
	b.Implementation = parts[0]
	b.Address = ""
	if len(parts) == 2 {
		b.Address = parts[1]
	}
	return nil
}
