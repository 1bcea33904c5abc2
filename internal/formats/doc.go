// Package formats holds the closed set of export layouts postmetrics
// recognises and the registry the detector walks.
//
// Each sub-package describes one layout as a domain.Layout: its detection
// signature, the header names each canonical field is read from, accepted
// timestamp patterns and any derived fields. Layouts are validated when
// registered, so a broken mapping table fails at startup rather than on
// the first upload.
package formats
