/*
Package matcher provides Gomega matchers for service records and snapshots.
*/
package matcher
