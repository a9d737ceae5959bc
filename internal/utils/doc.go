// Package utils provides a collection of helper functions and utilities for common tasks,
// such as path segment sanitization, file probing, type conversion, and content type validation.
package utils
