// Package conversation implements the conversation manager: a durable,
// ordered, client-scoped log of user and assistant turns. The manager
// serializes appends per conversation so sequence numbers are strictly
// increasing and gap-free; deleting a turn marks it and never renumbers.
// Two stores are provided: an in-memory one for tests and single-process
// use, and a Postgres one on uptrace/bun.
package conversation
