// Package textutil provides filename and token sanitization shared by the
// intake path and on-disk artifact naming.
package textutil
