// Package update classifies the relation between an installed IDE version and
// a release about to be installed over it.
//
// It performs no downloads or file operations. Callers use the Decision and
// its message to tell the user what an install is about to do; it never
// blocks an install by itself.
//
// Version model
//   - Versions are dotted numeric strings as published by the vendor
//     ("2024.1", "2024.1.3"), optionally with a prerelease suffix.
//   - Missing segments compare as zero: "2024.1" == "2024.1.0".
//   - An empty current version means nothing is installed yet.
package update
