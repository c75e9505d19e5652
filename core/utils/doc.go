// Package utils provides small conversion helpers shared by HTTP handlers and
// commands: loosely typed numbers and booleans from form values, browser
// lastModified timestamps, and comma-separated field lists.
package utils
