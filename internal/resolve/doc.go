// Package resolve maps field-access nodes to the native collection they are
// stored in.
package resolve
