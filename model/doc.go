// Package model defines the minimal language-model abstraction the agents,
// router and engine drive generation through. Concrete providers live in the
// openai and anthropic subpackages; MockModel supports tests and examples
// with deterministic canned completions.
package model
