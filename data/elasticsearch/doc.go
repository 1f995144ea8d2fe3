// Package elasticsearch is the index adapter used by the rest of the module.
//
// Adapter wraps client.Client and turns every failure into a logged boolean or
// nil result. Callers that need the underlying error use Adapter.Client.
package elasticsearch
