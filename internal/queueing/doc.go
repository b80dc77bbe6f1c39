// Package queueing evaluates steady-state metrics of classical queueing models.
//
// Every model has its own entry point (MM1, MMS, MMInf, MM1K, MMSK, MM1N, MMSN,
// MG1, Priority). Evaluator adds parameter resolution and the optional state,
// tail and waiting-time queries on top of them.
//
// Evaluations are pure: they read their inputs, compute, and return a fresh
// model.Result or an *Error. Finite-capacity and finite-population systems never
// fail on load; boundary conditions are reported in Result.Notes instead.
package queueing
