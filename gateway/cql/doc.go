// Package cql provides a gocql-backed implementation of gateway.Gateway.
//
// The store's nested column model is rendered relationally. Flat tables
// keep one row per cell:
//
//	CREATE TABLE ks.users (key text, column1 text, value text,
//	    PRIMARY KEY (key, column1))
//
// Nested (super) tables add a second clustering column:
//
//	CREATE TABLE ks.events (key text, column1 text, column2 text, value text,
//	    PRIMARY KEY (key, column1, column2))
//
// A schema artifact (see the schema package) drives DescribeSchema and
// CreateKeyspace and tells the client which layout each table uses.
//
// # Basic Usage
//
//	artifact, err := schema.Load("keyspace.yaml")
//	if err != nil {
//	    return err
//	}
//
//	gw, err := cql.New(cql.Config{
//	    Addresses: []string{"127.0.0.1"},
//	    Artifact:  artifact,
//	})
//	if err != nil {
//	    return err
//	}
//
//	session, err := stratum.NewSession(gw)
package cql
