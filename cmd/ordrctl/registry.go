package main

import (
	"github.com/casperin/ordr"
	"github.com/casperin/ordr/examples/producers"
)

// buildRegistry wires the bundled example producers into a fresh Registry.
// A real caller would do the same thing for its own producers; ordrctl only
// ships enough of them to make the demo job runnable end to end.
func buildRegistry() *ordr.Registry {
	r := ordr.NewRegistry()

	envVars := ordr.Of[producers.EnvVars]()
	printed := ordr.Of[producers.Printed]()
	jsonDoc := ordr.Of[producers.JSONDoc]()
	url := ordr.Of[producers.URL]()

	r.Register(ordr.Producer0(envVars, producers.FetchEnvVars))
	r.Register(ordr.Producer1(printed, envVars, producers.PrintEnvVars))
	r.Register(ordr.Producer1(jsonDoc, url, producers.FetchJSON))

	return r
}
