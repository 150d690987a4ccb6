package controllers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	"github.com/angelmondragon/redseam-storefront/api/validators"
	"github.com/angelmondragon/redseam-storefront/internal/users"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

const (
	avatarField = "avatar"
	// maxAvatarUpload caps the multipart body. Files between
	// users.MaxAvatarBytes and this cap need the force flag.
	maxAvatarUpload = 5 << 20
)

// LoginPage renders GET /login. Logged-in visitors go back to the listing.
func LoginPage(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		chrome := sf.chrome(r.Context(), scope, views.PanelClosed, r.URL.Path)
		if chrome.Header.LoggedIn {
			responses.Redirect(w, r, "/")
			return
		}
		body := views.LoginBody{ReturnTo: returnTarget(r.URL.Query().Get("return"))}
		sf.page(w, r, http.StatusOK, views.PageLogin, "Log in", chrome, body)
	}
}

// LoginSubmit handles POST /login.
func LoginSubmit(sf *Storefront, svc users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			sf.renderError(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form"))
			return
		}

		req := users.LoginRequest{Username: validators.SanitizeString(r.PostFormValue("username"), 256)}
		target := returnTarget(r.PostFormValue("return"))
		if _, err := svc.Login(r.Context(), scope, req); err != nil {
			_, meta := responses.Resolve(err)
			if meta.HTTPStatus >= http.StatusInternalServerError {
				sf.renderError(w, r, err)
				return
			}
			chrome := sf.chrome(r.Context(), scope, views.PanelClosed, r.URL.Path)
			body := views.LoginBody{Username: req.Username, Error: responses.PublicMessage(err), ReturnTo: target}
			sf.page(w, r, meta.HTTPStatus, views.PageLogin, "Log in", chrome, body)
			return
		}

		if sf.Logger != nil {
			sf.Logger.Info(sf.Logger.WithField(r.Context(), "username", req.Username), "user.login")
		}
		responses.Redirect(w, r, target)
	}
}

// Logout handles POST /logout. The cart stays in storage but is hidden until
// the next login.
func Logout(sf *Storefront, svc users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		if err := svc.Logout(r.Context(), scope); err != nil {
			sf.renderError(w, r, err)
			return
		}
		responses.Redirect(w, r, "/")
	}
}

// AvatarUpload handles POST /avatar with a multipart image file.
func AvatarUpload(sf *Storefront, svc users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload+(64<<10))
		if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
			sf.renderError(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar upload is too large or malformed"))
			return
		}
		dataURL, err := readAvatar(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		req := users.AvatarRequest{DataURL: dataURL, Force: r.PostFormValue("force") != ""}
		if _, err := svc.SetAvatar(r.Context(), scope, req); err != nil {
			sf.renderError(w, r, err)
			return
		}
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// AvatarRemove handles POST /avatar/remove.
func AvatarRemove(sf *Storefront, svc users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		if _, err := svc.RemoveAvatar(r.Context(), scope); err != nil {
			sf.renderError(w, r, err)
			return
		}
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// HeaderState handles GET /api/v1/header.
func HeaderState(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, sf.Header.Resolve(r.Context(), scope))
	}
}

// readAvatar turns the uploaded file into a base64 data URL. The media type
// is sniffed from the bytes rather than trusted from the client.
func readAvatar(r *http.Request) (string, error) {
	file, _, err := r.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "please select an image file")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar upload is malformed")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarUpload+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar upload is malformed")
	}
	if len(raw) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "please select an image file")
	}
	mediaType := http.DetectContentType(raw)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
