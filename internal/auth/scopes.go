package auth

const (
	ScopeOpenID          = "openid"
	ScopeProfile         = "profile"
	ScopeEmail           = "email"
	ScopeTranscribeRead  = "transcribe:read"
	ScopeTranscribeWrite = "transcribe:write"
)

// AllScopes defines the full set of scopes used by the Swagger UI / Frontend
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeTranscribeRead,
	ScopeTranscribeWrite,
}
