// Package validation checks report inputs before the pipeline runs:
// uploaded files (name, extension, size), the raw filter form, and local
// export paths for the batch CLI.
package validation
