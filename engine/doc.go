// Package engine implements the orchestrator: for each incoming question it
// resolves an execution plan through the router, drives the plan's agent
// stages (concurrent within a stage, sequential across stages, each agent
// bounded by a timeout), consolidates the accumulated results into one
// answer with merged citations, persists the turn and streams progress as an
// ordered event sequence ending in exactly one terminal event.
package engine
