// Package version provides build-time version information for the esadapter
// binary.
//
// The variables are set at build time using ldflags:
//
//	go build -ldflags "\
//	  -X github.com/opsworks/esadapter/version.Version=1.2.3 \
//	  -X github.com/opsworks/esadapter/version.Branch=main \
//	  -X github.com/opsworks/esadapter/version.Revision=abc123 \
//	  -X 'github.com/opsworks/esadapter/version.BuiltAt=$(date)'"
//
// When they are left unset, the revision and commit time recorded by the Go
// toolchain in the binary's build info are used instead.
package version
