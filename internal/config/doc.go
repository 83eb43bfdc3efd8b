// Package config manages application configuration for the EventSphere API.
//
// Configuration is read from three layers, lowest precedence first:
//
//   - built-in defaults
//   - an optional TOML file named by CONFIG_FILE
//   - environment variables, including a .env file in the working directory
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT        - HTTP server port (default: 8080)
//	DB_DRIVER          - surrealdb or memory (default: surrealdb)
//	DB_TRANSACTIONS    - auto, on or off (default: auto)
//	JWT_SECRET         - HS256 signing secret (required)
//	MAX_LOGIN_ATTEMPTS - failed logins before lockout (default: 5)
//	LOCKOUT_DURATION   - how long a locked account stays locked (default: 15m)
//	JOBS_ENABLED       - run the lifecycle scheduler (default: true)
//	CASCADE_TIMEOUT    - deadline for cascading deletes (default: 30s)
//	LOG_LEVEL          - debug, info, warn or error (default: info)
//	LOG_DIR            - also write JSON logs to daily files here
package config
