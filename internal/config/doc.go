// Package config provides configuration parsing for the tablequery server
// and CLI.
//
// The configuration is stored in tablequery.json. Every key is optional;
// missing values fall back to the defaults returned by New.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "address": ":8080",
//	    "shutdownTimeout": "10s",
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "table": {
//	    "defaultLimit": 10,
//	    "defaultPage": 1,
//	    "numericPolicy": "keep"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "tablequery",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "tablequery"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	codec := tablequery.New(cfg.CodecOptions()...)
package config
