// Package sanitizer normalizes untrusted input before validation and storage.
// Sanitizers never reject values — they transform; rejection belongs to the
// validator package.
package sanitizer
