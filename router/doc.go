// Package router classifies an incoming question into one of the fixed
// routing intents and resolves it to an execution plan from the plan
// catalogue. Classification tries a Portuguese keyword scorer first and only
// consults the model for ambiguous questions; any classifier failure falls
// back deterministically to the general plan, so routing is never a single
// point of total failure.
package router
