// Package config handles loading and validating twin registry configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (TWINREGISTRY_*)
//   - Validation of required fields per selected backend
//   - Default value handling
//
// Credentials (MongoDB URI, Elasticsearch and MQTT passwords, InfluxDB
// token) should be supplied through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Backend)
package config
