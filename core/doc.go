// Package core contains the vendor gateway domain contracts, configuration,
// and the error taxonomy shared by every adapter. Lower-level packages
// (datacenter, credentials, oauth, transport, drive, normalize) depend on
// core; core must not depend on any of them.
package core
