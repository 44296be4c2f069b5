package services

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// Well-known Azurite development account.
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// isLocalEndpoint reports whether a service URL points at a local emulator
// (plain http) rather than a real Azure endpoint.
func isLocalEndpoint(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

func azuriteCredentials() (string, string) {
	return azuriteAccountName, azuriteAccountKey
}

// newTokenCredential returns the managed-identity credential chain used in
// production.
func newTokenCredential() (azcore.TokenCredential, error) {
	return azidentity.NewDefaultAzureCredential(nil)
}
