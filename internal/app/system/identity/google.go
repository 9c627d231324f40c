package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleVerifier exchanges Google OAuth codes for a verified profile.
// It backs the Google sign-in variant of login; account linkage stays the
// Provider's job (register-or-login by email).
type GoogleVerifier struct {
	config *oauth2.Config
}

// NewGoogleVerifier builds a verifier. RedirectURL should be
// baseURL + "/auth/google/callback".
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// IsConfigured reports whether Google sign-in is usable.
func (v *GoogleVerifier) IsConfigured() bool {
	return v.config.ClientID != "" && v.config.ClientSecret != ""
}

// AuthCodeURL returns the consent-screen URL for the given state.
func (v *GoogleVerifier) AuthCodeURL(state string) string {
	return v.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GoogleProfile is the subset of Google's userinfo response we consume.
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange trades the callback code for the user's verified profile.
func (v *GoogleVerifier) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	token, err := v.config.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("google: code exchange: %w", err)
	}

	client := v.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("google: fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleProfile{}, fmt.Errorf("google: userinfo status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return GoogleProfile{}, fmt.Errorf("google: decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return GoogleProfile{}, fmt.Errorf("google: userinfo missing email")
	}
	return profile, nil
}
