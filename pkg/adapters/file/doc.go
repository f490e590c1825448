// Package file provides filesystem adapters: a YAML/JSON catalog provider and a
// JSON session store with atomic writes.
package file
