package users

// Record is the persisted visitor profile. A record without a username reads
// as logged out.
type Record struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// LoggedIn reports whether r identifies a visitor.
func (r *Record) LoggedIn() bool {
	return r != nil && r.Username != ""
}

// LoginRequest is the body accepted by the login form and JSON endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// AvatarRequest carries an avatar as a data URL. Force confirms saving an
// image above the soft size limit.
type AvatarRequest struct {
	DataURL string `json:"data_url" validate:"required"`
	Force   bool   `json:"force"`
}
