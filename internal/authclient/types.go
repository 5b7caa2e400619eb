package authclient

// SubscriptionTier enumerates the backend's subscription levels.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Profile is the profile block nested inside a User.
type Profile struct {
	// ID is the profile identifier (distinct from the user identifier).
	ID string `json:"id"`

	// Tier duplicates the subscription tier at profile scope.
	Tier SubscriptionTier `json:"tier,omitempty"`

	// Applications lists the applications the profile is enrolled in.
	Applications []string `json:"applications,omitempty"`

	// Preferences is a map of scalar preference values.
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// User is the backend's representation of an account.
// The identifier is an opaque string and is immutable for the lifetime of
// an authenticated session.
type User struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name,omitempty"`
	Username    string           `json:"username,omitempty"`
	GivenName   string           `json:"given_name,omitempty"`
	FamilyName  string           `json:"family_name,omitempty"`
	Tier        SubscriptionTier `json:"tier,omitempty"`
	Permissions []string         `json:"permissions,omitempty"`
	Profile     *Profile         `json:"profile,omitempty"`
}

// Name returns the best available human-readable name: the display name,
// falling back to the username and finally the email address.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// HasPermission reports whether the user's permission set contains the
// given capability string.
func (u *User) HasPermission(capability string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}

// AuthResponse is the body returned by login and by the OAuth code
// exchange (the OAuth variant of login).
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterResponse is the body returned by register.
type RegisterResponse struct {
	User *User `json:"user"`
}

// RefreshResponse is the body returned by refresh. RefreshToken is only
// present when the server rotates refresh tokens.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// MessageResponse is the body returned by the password recovery endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProvidersResponse is the body returned by the OAuth provider discovery
// endpoint.
type ProvidersResponse struct {
	Providers     []string               `json:"providers"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
}

// AuthorizationResponse is the body returned when beginning an OAuth
// authorization: the URL to navigate to and the one-time anti-forgery
// state token to carry through the flow.
type AuthorizationResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}
