// Package delimited implements driven.UploadParser for comma-separated
// analytics exports.
//
// Platform exports often carry a title block above the real header, are
// saved as Windows-1252 by spreadsheet tools, and start with a UTF-8 byte
// order mark. The parser locates the header row among the first lines,
// decodes non-UTF-8 input as Windows-1252 and reads the remaining rows
// leniently (ragged rows and stray quotes are accepted).
package delimited
