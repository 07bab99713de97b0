// Package preflight provides readiness checks for the executables, paths
// and credentials podscribe depends on.
//
// The CLI "check" command runs RunAll and prints one row per result; the
// submit and poll commands run CheckCredentials before dialing the service so
// a missing key file is reported plainly instead of as a gRPC error.
package preflight
