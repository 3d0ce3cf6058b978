// Package config provides configuration parsing for the reactivity tools.
//
// The configuration is stored in reactivity.json. This package handles
// loading, saving, and validating it. Missing fields take defaults.
//
// # Configuration File Structure
//
//	{
//	  "name": "demo",
//	  "devtools": {
//	    "port": 7070,
//	    "host": "localhost",
//	    "eventBuffer": 256
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "reactivity"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "github.com/vango-dev/reactivity"
//	  },
//	  "debug": {
//	    "logEffectRuns": true
//	  },
//	  "logLevel": "info"
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.DevtoolsAddress())
package config
