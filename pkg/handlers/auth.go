package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"headless-cms/pkg/config"
	"headless-cms/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	sessionLogin = "github_login"
	sessionState = "oauth_state"
)

// githubUserURL is the GitHub endpoint returning the signed in user.
var githubUserURL = "https://api.github.com/user"

// Admin serves the settings panel behind GitHub sign-in.
type Admin struct {
	Config   *config.Config
	Settings *services.SettingsStore
}

func NewAdmin(cfg *config.Config, settings *services.SettingsStore) *Admin {
	return &Admin{Config: cfg, Settings: settings}
}

func (a *Admin) AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	login, _ := session.Get(sessionLogin).(string)
	if login == "" || !a.Config.IsAdmin(login) {
		if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
			abortWithError(c, failure.New(services.ErrUnauthorized, failure.Message("Unauthorized")))
		} else {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
		}
		return
	}
	c.Set(sessionLogin, login)
	c.Next()
}

func (a *Admin) GithubLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		abortWithError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Set(sessionState, state)
	if err := session.Save(); err != nil {
		abortWithError(c, failure.MarkUnexpected(err))
		return
	}
	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOnline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (a *Admin) AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	want, _ := session.Get(sessionState).(string)
	session.Delete(sessionState)
	if want == "" || c.Query("state") != want {
		abortWithError(c, failure.New(services.ErrInvalidArgument, failure.Message("Invalid OAuth state")))
		return
	}

	token, err := config.OauthConf.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Warn().Err(err).Msg("oauth exchange failed")
		abortWithError(c, failure.Translate(err, services.ErrUnauthorized, failure.Message("OAuth Exchange Failed")))
		return
	}
	login, err := fetchGithubLogin(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !a.Config.IsAdmin(login) {
		log.Warn().Str("login", login).Msg("admin sign-in refused")
		abortWithError(c, failure.New(services.ErrForbidden, failure.Message("Not an administrator")))
		return
	}

	session.Set(sessionLogin, login)
	if err := session.Save(); err != nil {
		abortWithError(c, failure.MarkUnexpected(err))
		return
	}
	log.Info().Str("login", login).Msg("admin signed in")
	c.Redirect(http.StatusFound, "/admin/")
}

func (a *Admin) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

func fetchGithubLogin(ctx context.Context, token *oauth2.Token) (string, error) {
	client := config.OauthConf.Client(ctx, token)
	resp, err := client.Get(githubUserURL)
	if err != nil {
		return "", failure.MarkUnexpected(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", failure.New(services.ErrUnauthorized,
			failure.Messagef("GitHub user lookup failed: %s", resp.Status))
	}
	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", failure.MarkUnexpected(err)
	}
	return user.Login, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", failure.MarkUnexpected(err)
	}
	return hex.EncodeToString(b), nil
}
