// Package config provides configuration parsing for wstask.
//
// The configuration is stored in wstask.json, found in the working directory
// or any of its parents. Every field is optional; durations are Go duration
// strings.
//
// # Configuration File Structure
//
//	{
//	  "url": "ws://localhost:8080/ws",
//	  "mode": "both",
//	  "format": "json",
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "socket": {
//	    "handshakeTimeout": "15s",
//	    "writeTimeout": "10s",
//	    "closeGracePeriod": "1s",
//	    "maxMessageSize": 33554432,
//	    "subprotocols": ["echo"],
//	    "headers": {"Authorization": "Bearer token"}
//	  },
//	  "echo": {
//	    "timeout": "5s"
//	  },
//	  "server": {
//	    "addr": ":8080",
//	    "path": "/ws",
//	    "rate": 20,
//	    "burst": 40
//	  },
//	  "transcript": {
//	    "target": "s3://my-bucket/transcripts",
//	    "s3": {"region": "us-east-1"}
//	  },
//	  "metrics": {
//	    "addr": ":9090",
//	    "namespace": "wstask"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Discover(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mode, _ := cfg.ConnectionMode()
package config
