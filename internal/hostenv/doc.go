// Package hostenv answers questions about the local machine that affect
// whether an installed IDE can run.
package hostenv
