// Package integrationtests runs whole plans through the CLI parser and the
// app, checking the console output a user would see.
package integrationtests
