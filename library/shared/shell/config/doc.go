// Package config loads the runtime configuration of the library service and builds
// the connections and telemetry providers it needs.
//
// Configuration is read from an optional .env file (github.com/joho/godotenv) and from
// environment variables with the LIBRARY_ prefix. Already exported variables win over the file.
//
// The factory functions create database connections for the supported drivers
// (pgx.Pool, sql.DB, sqlx.DB for PostgreSQL, the official MongoDB driver) with
// pre-configured pool settings, and OpenTelemetry providers exporting via OTLP gRPC.
package config
