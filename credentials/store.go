// Package credentials exposes the server-held vendor secrets. The store is
// built once from configuration and is read-only afterwards; refreshed
// tokens are handed back to callers and never written here.
package credentials

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

type Store struct {
	apolloAPIKey      string
	zohoClientID      string
	zohoClientSecret  string
	zohoAccessToken   string
	zohoRefreshToken  string
	zohoRedirectURI   string
	assistantProvider string
	assistantAPIKey   string
	datacenter        core.Datacenter
	account           core.AccountRef
}

func NewStore(cfg core.Config) *Store {
	dc, ok := core.ParseDatacenter(cfg.Datacenter)
	if !ok {
		dc = core.DefaultDatacenter
	}
	return &Store{
		apolloAPIKey:      strings.TrimSpace(cfg.Apollo.APIKey),
		zohoClientID:      strings.TrimSpace(cfg.Zoho.ClientID),
		zohoClientSecret:  strings.TrimSpace(cfg.Zoho.ClientSecret),
		zohoAccessToken:   strings.TrimSpace(cfg.Zoho.AccessToken),
		zohoRefreshToken:  strings.TrimSpace(cfg.Zoho.RefreshToken),
		zohoRedirectURI:   strings.TrimSpace(cfg.Zoho.RedirectURI),
		assistantProvider: strings.ToLower(strings.TrimSpace(cfg.Assistant.Provider)),
		assistantAPIKey:   strings.TrimSpace(cfg.Assistant.APIKey),
		datacenter:        dc,
		account:           cfg.Account(),
	}
}

// AuthKind reports how a vendor authenticates.
func AuthKind(vendor core.Vendor) core.CredentialKind {
	if vendor == core.VendorApollo {
		return core.CredentialKindAPIKey
	}
	return core.CredentialKindOAuthToken
}

// APIKey returns the server-side key for API-key vendors.
func (s *Store) APIKey(vendor core.Vendor) (string, error) {
	if AuthKind(vendor) != core.CredentialKindAPIKey {
		return "", core.BadRequestError(fmt.Sprintf("%s does not authenticate with an api key", vendor), nil)
	}
	if s == nil || s.apolloAPIKey == "" {
		return "", core.MissingCredentialError(vendor, core.EnvApolloAPIKey)
	}
	return s.apolloAPIKey, nil
}

// OAuthCredential returns the configured service token for an OAuth vendor.
func (s *Store) OAuthCredential(vendor core.Vendor) (core.VendorCredential, error) {
	if AuthKind(vendor) != core.CredentialKindOAuthToken {
		return core.VendorCredential{}, core.BadRequestError(fmt.Sprintf("%s does not use oauth tokens", vendor), nil)
	}
	if s == nil || s.zohoAccessToken == "" {
		return core.VendorCredential{}, core.MissingCredentialError(vendor, core.EnvZohoAccessToken)
	}
	return core.VendorCredential{
		Vendor:       vendor,
		Kind:         core.CredentialKindOAuthToken,
		Value:        s.zohoAccessToken,
		Datacenter:   s.datacenter,
		RefreshToken: s.zohoRefreshToken,
	}, nil
}

// Credential returns the credential a vendor call needs, dispatching on the
// vendor's auth kind.
func (s *Store) Credential(vendor core.Vendor) (core.VendorCredential, error) {
	if AuthKind(vendor) == core.CredentialKindAPIKey {
		key, err := s.APIKey(vendor)
		if err != nil {
			return core.VendorCredential{}, err
		}
		return core.VendorCredential{Vendor: vendor, Kind: core.CredentialKindAPIKey, Value: key}, nil
	}
	return s.OAuthCredential(vendor)
}

// ClientCredentials returns the OAuth client id and secret.
func (s *Store) ClientCredentials(vendor core.Vendor) (string, string, error) {
	if AuthKind(vendor) != core.CredentialKindOAuthToken {
		return "", "", core.BadRequestError(fmt.Sprintf("%s has no oauth client", vendor), nil)
	}
	if s == nil || s.zohoClientID == "" {
		return "", "", core.MissingCredentialError(vendor, core.EnvZohoClientID)
	}
	if s.zohoClientSecret == "" {
		return "", "", core.MissingCredentialError(vendor, core.EnvZohoClientSecret)
	}
	return s.zohoClientID, s.zohoClientSecret, nil
}

// RefreshToken returns the configured long-lived refresh token.
func (s *Store) RefreshToken() (string, error) {
	if s == nil || s.zohoRefreshToken == "" {
		return "", core.MissingCredentialError(core.VendorAccounts, core.EnvZohoRefreshToken)
	}
	return s.zohoRefreshToken, nil
}

func (s *Store) RedirectURI() string {
	if s == nil {
		return ""
	}
	return s.zohoRedirectURI
}

// AssistantAPIKey returns the key for the configured assistant provider.
func (s *Store) AssistantAPIKey() (string, string, error) {
	if s == nil || s.assistantAPIKey == "" {
		return "", "", core.MissingCredentialError("assistant", core.EnvAssistantAPIKey)
	}
	provider := s.assistantProvider
	if provider == "" {
		provider = core.AssistantProviderOpenAI
	}
	return provider, s.assistantAPIKey, nil
}

func (s *Store) Datacenter() core.Datacenter {
	if s == nil {
		return core.DefaultDatacenter
	}
	return s.datacenter
}

func (s *Store) Account() core.AccountRef {
	if s == nil {
		return core.AccountRef{}
	}
	return s.account
}

// RequireAccount fails with MissingCredential for the first unset identifier.
func (s *Store) RequireAccount(owner, appName, workspace bool) (core.AccountRef, error) {
	account := s.Account()
	switch {
	case owner && account.Owner == "":
		return account, core.MissingCredentialError(core.VendorCreator, core.EnvZohoOwner)
	case appName && account.AppName == "":
		return account, core.MissingCredentialError(core.VendorCreator, core.EnvZohoAppName)
	case workspace && account.WorkspaceID == "":
		return account, core.MissingCredentialError(core.VendorWorkDrive, core.EnvZohoWorkspaceID)
	}
	return account, nil
}

// String never prints secret values.
func (s *Store) String() string {
	if s == nil {
		return "credentials.Store(nil)"
	}
	return fmt.Sprintf("credentials.Store{datacenter:%s apollo:%t zoho_client:%t zoho_token:%t}",
		s.datacenter, s.apolloAPIKey != "", s.zohoClientID != "", s.zohoAccessToken != "")
}

func (s *Store) GoString() string {
	return s.String()
}
